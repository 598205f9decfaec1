// Package conn implements the per-socket connection state the router and
// client share: chunk decoding via frame.Decoder, an outbound queue with
// the backpressure policy from §5, and the bridge to the ioloop.Handler
// callback surface (§4.2).
package conn

import (
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/lukacu/routio/errors"
	"github.com/lukacu/routio/frame"
	"github.com/lukacu/routio/ioloop"
)

// State is a connection's position in its lifecycle (§4.2).
type State int32

const (
	StateConnecting State = iota
	StateReady
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PayloadFunc handles one reassembled payload arriving on channel. It runs
// on the loop thread and must not block.
type PayloadFunc func(c *Connection, channel uint32, payload []byte)

// ClosedFunc is invoked once, on the loop thread, when a connection's
// reader goroutine observes EOF or an I/O error, or when the decoder
// rejects a frame. err is nil for a clean peer-initiated close.
type ClosedFunc func(c *Connection, err error)

// Connection wraps one accepted or outgoing socket. The zero value is not
// usable; build one with New.
type Connection struct {
	netConn net.Conn
	loop    *ioloop.Loop
	id      ioloop.HandlerID

	decoder *frame.Decoder

	out           *outboundQueue
	writeSignal   chan struct{}
	writeStopOnce sync.Once
	writeDone     chan struct{}

	state atomic.Int32

	bytesIn  atomic.Int64
	bytesOut atomic.Int64

	label atomic.Value // string

	mu      sync.Mutex
	aliases map[string]uint32

	onPayload PayloadFunc
	onClosed  ClosedFunc

	closeOnce sync.Once
}

// Options bundle the tunables New needs beyond the socket itself.
type Options struct {
	// QueueCapacity bounds the number of pending outbound chunks (§5).
	QueueCapacity int
	// Lossy selects the drop-oldest backpressure policy instead of the
	// default disconnect-on-overflow policy (§5).
	Lossy bool
	OnPayload PayloadFunc
	OnClosed  ClosedFunc
}

// New wraps netConn, registers it with loop, and starts its reader and
// writer goroutines. The connection begins in StateConnecting; callers
// move it to StateReady once a handshake (or, for outgoing connections,
// nothing at all) completes.
func New(netConn net.Conn, loop *ioloop.Loop, opts Options) (*Connection, error) {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = 256
	}
	out, err := newOutboundQueue(opts.QueueCapacity, opts.Lossy)
	if err != nil {
		return nil, errors.WrapFatal(err, "conn.Connection", "New")
	}

	c := &Connection{
		netConn:     netConn,
		loop:        loop,
		decoder:     frame.NewDecoder(),
		out:         out,
		writeSignal: make(chan struct{}, 1),
		writeDone:   make(chan struct{}),
		aliases:     make(map[string]uint32),
		onPayload:   opts.OnPayload,
		onClosed:    opts.OnClosed,
	}
	c.label.Store("")
	c.state.Store(int32(StateConnecting))
	c.id = loop.AddHandler(c)

	go c.readLoop()
	go c.writeLoop()
	return c, nil
}

// ID is the handler identity this connection registered with its loop.
func (c *Connection) ID() ioloop.HandlerID { return c.id }

// State reports the connection's current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// SetState transitions the connection. The router calls this once the
// handshake completes (ready) and once it begins a graceful shutdown
// (draining).
func (c *Connection) SetState(s State) { c.state.Store(int32(s)) }

// Label is the peer-supplied identifier from the handshake, or "" before
// one arrives.
func (c *Connection) Label() string { return c.label.Load().(string) }

// SetLabel records the peer's handshake-supplied label.
func (c *Connection) SetLabel(label string) { c.label.Store(label) }

// BytesIn and BytesOut report cumulative byte counters for statistics.
func (c *Connection) BytesIn() int64  { return c.bytesIn.Load() }
func (c *Connection) BytesOut() int64 { return c.bytesOut.Load() }

// Alias resolves a connection-local alias to the channel number the peer
// previously declared it against.
func (c *Connection) Alias(alias string) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.aliases[alias]
	return ch, ok
}

// SetAlias records alias -> channel for this connection's local table.
func (c *Connection) SetAlias(alias string, channel uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = channel
}

// ClearAlias drops a previously declared alias, e.g. on unsubscribe.
func (c *Connection) ClearAlias(alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.aliases, alias)
}

// Send encodes payload addressed to channel and queues it for delivery.
// It returns false if the connection is not lossy and its outbound queue
// is already full — the caller (the directory's fan-out) must then close
// the connection per §5's default backpressure policy.
func (c *Connection) Send(channel uint32, payload []byte) bool {
	return c.SendEncoded(frame.Encode(channel, payload))
}

// SendEncoded queues already-framed wire bytes for delivery without
// re-running frame.Encode. A fan-out across many subscribers (see
// directory.Publish) encodes a published payload once and passes the same
// slice to every subscriber's queue through this method, rather than
// paying frame.Encode's allocation once per subscriber.
func (c *Connection) SendEncoded(wire []byte) bool {
	if overflow := c.out.Enqueue(wire); overflow {
		return false
	}
	select {
	case c.writeSignal <- struct{}{}:
	default:
	}
	return true
}

// Close tears the connection down: stops the writer, removes the loop
// handler, and closes the socket. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		c.loop.RemoveHandler(c.id)
		c.writeStopOnce.Do(func() { close(c.writeDone) })
		c.out.Close()
		err = c.netConn.Close()
	})
	return err
}

// readLoop is the connection's dedicated goroutine doing blocking socket
// reads; it posts raw bytes to the loop so decode+dispatch runs on the
// loop thread and the channel directory stays lock-free (§4.4, ioloop doc).
func (c *Connection) readLoop() {
	buf := make([]byte, 64*1024)
	for {
		n, err := c.netConn.Read(buf)
		if n > 0 {
			c.bytesIn.Add(int64(n))
			cp := make([]byte, n)
			copy(cp, buf[:n])
			c.loop.Post(ioloop.Event{HandlerID: c.id, Kind: ioloop.Readable, Data: cp})
		}
		if err != nil {
			if err != io.EOF {
				c.loop.Post(ioloop.Event{HandlerID: c.id, Kind: ioloop.ErrorEvent, Err: errors.WrapFatal(err, "conn.Connection", "readLoop")})
			} else {
				c.loop.Post(ioloop.Event{HandlerID: c.id, Kind: ioloop.ErrorEvent, Err: nil})
			}
			return
		}
	}
}

// writeLoop drains the outbound queue to the socket. It runs independently
// of the loop thread since writes to distinct connections never need to be
// serialized against each other; only reads that touch the shared
// directory do.
func (c *Connection) writeLoop() {
	for {
		select {
		case <-c.writeDone:
			return
		case <-c.writeSignal:
		}
		for {
			chunk, ok := c.out.Dequeue()
			if !ok {
				break
			}
			if _, err := c.netConn.Write(chunk); err != nil {
				c.loop.Post(ioloop.Event{HandlerID: c.id, Kind: ioloop.ErrorEvent, Err: errors.WrapFatal(err, "conn.Connection", "writeLoop")})
				return
			}
			c.bytesOut.Add(int64(len(chunk)))
			c.loop.Post(ioloop.Event{HandlerID: c.id, Kind: ioloop.Writable})
		}
	}
}

// OnReadable implements ioloop.Handler. It feeds data to the decoder and
// dispatches every payload that became complete; a framing violation
// closes the connection with the classified error attached.
func (c *Connection) OnReadable(data []byte) {
	payloads, err := c.decoder.Feed(data)
	for _, p := range payloads {
		if c.onPayload != nil {
			c.onPayload(c, p.Channel, p.Data)
		}
	}
	if err != nil {
		c.OnError(err)
	}
}

// OnWritable implements ioloop.Handler; it exists for statistics symmetry
// with OnReadable since Go's Write already resolves partial writes itself.
func (c *Connection) OnWritable() {}

// OnError implements ioloop.Handler: EOF, an I/O error, or a framing
// violation all terminate the connection and notify onClosed.
func (c *Connection) OnError(err error) {
	if c.State() == StateClosed {
		return
	}
	_ = c.Close()
	if c.onClosed != nil {
		c.onClosed(c, err)
	}
}
