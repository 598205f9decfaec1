package dsl

import (
	"fmt"

	"github.com/lukacu/routio/errors"
)

// ParseError reports a lexer or parser failure at a specific source
// location, matching the reference compiler's "file (line: L, col: C):
// message" diagnostic shape (§7, §9).
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	file := e.Pos.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s (line: %d, col: %d): %s", file, e.Pos.Line, e.Pos.Column, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return errors.ErrParse
}
