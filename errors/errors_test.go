package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	assert.True(t, IsFatal(ErrFraming))
	assert.True(t, IsFatal(ErrIO))
	assert.True(t, IsInvalid(ErrTypeMismatch))
	assert.True(t, IsInvalid(ErrUnknownChannel))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsInvalid(nil))
	assert.False(t, IsTransient(nil))
}

func TestWrapPreservesClass(t *testing.T) {
	wrapped := WrapFatal(ErrFraming, "frame", "Decode")
	assert.True(t, IsFatal(wrapped))
	assert.ErrorIs(t, wrapped, ErrFraming)

	generic := Wrap(ErrUnknownChannel, "directory", "publish", "dispatch")
	assert.Equal(t, "directory.publish: dispatch failed: unknown channel", generic.Error())
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	wrapped := WrapInvalid(fmt.Errorf("boom"), "router", "handle")
	var ce *ClassifiedError
	assert.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, ErrorInvalid, ce.Class)
}
