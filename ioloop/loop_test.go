package ioloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	readable [][]byte
	writable int
	errs     []error
}

func (h *recordingHandler) OnReadable(data []byte) { h.readable = append(h.readable, data) }
func (h *recordingHandler) OnWritable()            { h.writable++ }
func (h *recordingHandler) OnError(err error)      { h.errs = append(h.errs, err) }

func TestDispatchReadable(t *testing.T) {
	loop := NewLoop(0)
	h := &recordingHandler{}
	id := loop.AddHandler(h)

	loop.Post(Event{HandlerID: id, Kind: Readable, Data: []byte("hello")})
	ok := loop.Wait(100)
	require.True(t, ok)
	require.Len(t, h.readable, 1)
	assert.Equal(t, "hello", string(h.readable[0]))
}

func TestWaitTimesOutWithNoEvent(t *testing.T) {
	loop := NewLoop(0)
	ok := loop.Wait(10)
	assert.True(t, ok)
}

func TestRemoveHandlerDropsQueuedEvents(t *testing.T) {
	loop := NewLoop(0)
	h := &recordingHandler{}
	id := loop.AddHandler(h)

	loop.Post(Event{HandlerID: id, Kind: Writable})
	loop.RemoveHandler(id)
	loop.Wait(50)

	assert.Equal(t, 0, h.writable)
}

func TestMultipleHandlersIsolated(t *testing.T) {
	loop := NewLoop(0)
	a := &recordingHandler{}
	b := &recordingHandler{}
	idA := loop.AddHandler(a)
	_ = loop.AddHandler(b)

	loop.Post(Event{HandlerID: idA, Kind: ErrorEvent, Err: assertErr})
	loop.Wait(50)

	require.Len(t, a.errs, 1)
	assert.Empty(t, b.errs)
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
