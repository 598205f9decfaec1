package conn

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukacu/routio/frame"
	"github.com/lukacu/routio/ioloop"
)

func TestReadableDispatchesPayload(t *testing.T) {
	loop := ioloop.NewLoop(0)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	received := make(chan []byte, 1)
	c, err := New(server, loop, Options{
		QueueCapacity: 4,
		OnPayload: func(conn *Connection, channel uint32, payload []byte) {
			received <- payload
		},
	})
	require.NoError(t, err)
	defer c.Close()

	go func() {
		_, _ = client.Write(frame.Encode(9, []byte("hello")))
	}()

	ok := loop.Wait(1000)
	require.True(t, ok)

	select {
	case got := <-received:
		assert.Equal(t, "hello", string(got))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestSendWritesToPeer(t *testing.T) {
	loop := ioloop.NewLoop(0)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c, err := New(server, loop, Options{QueueCapacity: 4})
	require.NoError(t, err)
	defer c.Close()

	ok := c.Send(3, []byte("world"))
	require.True(t, ok)

	buf := make([]byte, 64)
	client.SetReadDeadline(time.Now().Add(time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, frame.HeaderSize)
}

func TestSendEncodedWritesPreEncodedBytesVerbatim(t *testing.T) {
	loop := ioloop.NewLoop(0)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c, err := New(server, loop, Options{QueueCapacity: 4})
	require.NoError(t, err)
	defer c.Close()

	wire := frame.Encode(3, []byte("world"))
	ok := c.SendEncoded(wire)
	require.True(t, ok)

	buf := make([]byte, 64)
	client.SetReadDeadline(time.Now().Add(time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, wire, buf[:n])
}

func TestSendReportsOverflowForNonLossy(t *testing.T) {
	loop := ioloop.NewLoop(0)
	client, server := net.Pipe()
	defer client.Close()

	c, err := New(server, loop, Options{QueueCapacity: 1, Lossy: false})
	require.NoError(t, err)
	defer c.Close()

	// First enqueue fills the one-slot queue (writer goroutine may or may
	// not have drained it yet against a blocked net.Pipe peer).
	_ = c.Send(1, make([]byte, 1))
	// Keep enqueuing until overflow is observed or we give up; net.Pipe's
	// synchronous Write means the writer goroutine blocks until client
	// reads, so the queue should still be full here.
	overflowed := false
	for i := 0; i < 8; i++ {
		if ok := c.Send(1, make([]byte, 1)); !ok {
			overflowed = true
			break
		}
	}
	assert.True(t, overflowed)
}

func TestAliasTable(t *testing.T) {
	loop := ioloop.NewLoop(0)
	_, server := net.Pipe()
	c, err := New(server, loop, Options{QueueCapacity: 4})
	require.NoError(t, err)
	defer c.Close()

	c.SetAlias("cam0", 5)
	ch, ok := c.Alias("cam0")
	require.True(t, ok)
	assert.Equal(t, uint32(5), ch)

	c.ClearAlias("cam0")
	_, ok = c.Alias("cam0")
	assert.False(t, ok)
}

func TestClosePropagatesToOnClosed(t *testing.T) {
	loop := ioloop.NewLoop(0)
	client, server := net.Pipe()
	defer client.Close()

	closed := make(chan struct{})
	c, err := New(server, loop, Options{
		QueueCapacity: 4,
		OnClosed:      func(conn *Connection, err error) { close(closed) },
	})
	require.NoError(t, err)

	client.Close()
	loop.Wait(1000)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("OnClosed was not called")
	}
	assert.Equal(t, StateClosed, c.State())
}
