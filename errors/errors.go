// Package errors provides the error kinds and classification used across
// Routio's frame codec, connection, directory, router, client and DSL
// compiler, plus helpers for consistent wrapping.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lukacu/routio/pkg/retry"
)

// ErrorClass represents the disposition of an error per the error-kind
// table: transient errors may be retried, invalid ones are rejected
// outright, fatal ones terminate the affected connection or process.
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or a protocol violation.
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that terminate a connection.
	ErrorFatal
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables, one family per row of the §7 error-kind table.
var (
	// Framing (codec / connection)
	ErrFraming             = errors.New("framing error")
	ErrChunkExceedsTotal   = errors.New("chunk offset+length exceeds declared total")
	ErrTotalMismatch       = errors.New("chunk total disagrees with in-progress reassembly")
	ErrFrameTooLarge       = errors.New("frame exceeds maximum chunk size")
	ErrIO                  = errors.New("connection io error")
	ErrConnectionClosed    = errors.New("connection closed")
	ErrConnectionDraining  = errors.New("connection draining")

	// Directory
	ErrTypeMismatch     = errors.New("declared type identifier does not match channel")
	ErrUnknownChannel   = errors.New("unknown channel")
	ErrUnknownAlias     = errors.New("unknown alias")
	ErrBackpressure     = errors.New("subscriber disconnected for exceeding backpressure threshold")

	// Router / control
	ErrProtocol         = errors.New("protocol error")
	ErrHandshakeExpected = errors.New("handshake expected before data frames")
	ErrUnknownControlKind = errors.New("unknown control message kind")

	// DSL compiler
	ErrParse = errors.New("parse error")

	// Lifecycle, shared with the worker pool and client reconnect logic.
	ErrAlreadyStarted = errors.New("already started")
	ErrNotStarted     = errors.New("not started")
	ErrAlreadyStopped = errors.New("already stopped")
	ErrShuttingDown   = errors.New("shutting down")
)

// ClassifiedError wraps an error with its classification and the
// component/operation that produced it, so callers can report a short
// textual reason without a stack trace, per §7.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	return fmt.Sprintf("%s.%s: %s", ce.Component, ce.Operation, ce.Err.Error())
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return containsAny(err.Error(), "timeout", "temporary", "unavailable")
}

// IsFatal reports whether err should terminate the connection or process.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}
	return errors.Is(err, ErrFraming) || errors.Is(err, ErrIO) || errors.Is(err, ErrHandshakeExpected)
}

// IsInvalid reports whether err represents a rejected request that leaves
// the connection intact (TypeMismatch, UnknownChannel, ProtocolError).
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}
	return errors.Is(err, ErrTypeMismatch) || errors.Is(err, ErrUnknownChannel) || errors.Is(err, ErrProtocol)
}

func containsAny(s string, patterns ...string) bool {
	s = strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func newClassified(class ErrorClass, err error, component, operation string) *ClassifiedError {
	return &ClassifiedError{Class: class, Err: err, Component: component, Operation: operation}
}

// Wrap creates a standardized error with context following the pattern
// "component.method: action failed: %w".
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps err as transient (safe to retry).
func WrapTransient(err error, component, method string) error {
	if err == nil {
		return nil
	}
	return newClassified(ErrorTransient, err, component, method)
}

// WrapFatal wraps err as fatal (terminate the connection).
func WrapFatal(err error, component, method string) error {
	if err == nil {
		return nil
	}
	return newClassified(ErrorFatal, err, component, method)
}

// WrapInvalid wraps err as invalid (reject, keep the connection).
func WrapInvalid(err error, component, method string) error {
	if err == nil {
		return nil
	}
	return newClassified(ErrorInvalid, err, component, method)
}

// ToRetryConfig adapts the client runtime's reconnect policy to pkg/retry's
// Config, so both share one backoff implementation.
func ToRetryConfig(maxAttempts int) retry.Config {
	cfg := retry.DefaultConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	return cfg
}
