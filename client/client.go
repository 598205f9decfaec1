// Package client implements the Routio client runtime: connecting to a
// router, declaring publisher/subscriber channels, and exchanging typed
// messages over them (§6, §9). It reuses conn.Connection for the wire-level
// plumbing so the client and the router speak exactly the same framing and
// control protocol.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lukacu/routio/conn"
	"github.com/lukacu/routio/control"
	"github.com/lukacu/routio/errors"
	"github.com/lukacu/routio/frame"
	"github.com/lukacu/routio/ioloop"
	"github.com/lukacu/routio/pkg/retry"
)

// defaultReplyTimeout bounds how long Declare/Lookup/Ping wait for the
// router's reply before giving up.
const defaultReplyTimeout = 5 * time.Second

// Role selects whether a Declare call joins a channel as a publisher or a
// subscriber.
type Role = control.Role

const (
	RolePublisher  = control.RolePublisher
	RoleSubscriber = control.RoleSubscriber
)

// Handler receives one reassembled payload for a subscribed channel.
type Handler func(payload []byte)

// pendingReply carries whichever of the router's two possible answers to a
// correlated request (Declare, Lookup) arrives first: a successful
// ChannelAnnounce, or the reason it was rejected.
type pendingReply struct {
	announce control.ChannelAnnounce
	err      error
}

// Options configure Connect.
type Options struct {
	Network       string // "unix" or "tcp"; defaults to "unix"
	DialTimeout   time.Duration
	QueueCapacity int
	Lossy         bool
}

func (o Options) withDefaults() Options {
	if o.Network == "" {
		o.Network = "unix"
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = 256
	}
	return o
}

// Client is one connection to a Routio router. The zero value is not
// usable; build one with Connect.
type Client struct {
	conn  *conn.Connection
	loop  *ioloop.Loop
	label string

	mu      sync.Mutex
	pending map[string]chan pendingReply
	pongs   []chan struct{}
	subs    map[uint32]Handler

	stopped chan struct{}
	once    sync.Once
}

// Connect dials address, performs the handshake, and starts the client's
// background event pump. address is a filesystem path for "unix" or a
// host:port for "tcp" (§6).
func Connect(ctx context.Context, address, label string, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	nc, err := dialer.DialContext(ctx, opts.Network, address)
	if err != nil {
		return nil, errors.WrapTransient(err, "client.Client", "Connect")
	}
	return newClient(nc, label, opts)
}

// newClient wires an already-established connection into a Client and
// performs the handshake. Connect is the production entry point; tests use
// this directly against a net.Pipe() end to avoid a real dial.
func newClient(nc net.Conn, label string, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	loop := ioloop.NewLoop(0)
	c := &Client{
		loop:    loop,
		label:   label,
		pending: make(map[string]chan pendingReply),
		subs:    make(map[uint32]Handler),
		stopped: make(chan struct{}),
	}

	cn, err := conn.New(nc, loop, conn.Options{
		QueueCapacity: opts.QueueCapacity,
		Lossy:         opts.Lossy,
		OnPayload:     c.onPayload,
		OnClosed:      c.onClosed,
	})
	if err != nil {
		_ = nc.Close()
		return nil, errors.WrapFatal(err, "client.Client", "Connect")
	}
	c.conn = cn
	cn.SetState(conn.StateReady)

	go c.pump()

	if err := c.sendControl(control.Handshake{Label: label, Lossy: opts.Lossy}); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// ConnectWithRetry retries Connect with the given backoff policy until it
// succeeds or ctx is done, for the client's reconnect story (§9's "post to
// worker" note pairs with this for blocking callbacks).
func ConnectWithRetry(ctx context.Context, address, label string, opts Options, cfg retry.Config) (*Client, error) {
	return retry.DoWithResult(ctx, cfg, func() (*Client, error) {
		return Connect(ctx, address, label, opts)
	})
}

// pump drains the loop until the connection closes. It is the client's
// "loop thread" — every control reply and subscriber callback runs here.
func (c *Client) pump() {
	for {
		select {
		case <-c.stopped:
			return
		default:
		}
		if !c.loop.Wait(1000) {
			c.shutdown(nil)
			return
		}
	}
}

// Declare asks the router to create or join a channel, blocking until the
// router replies or ctx is done.
func (c *Client) Declare(ctx context.Context, name, typeID string, role Role, loopback bool) (uint32, error) {
	alias := uuid.NewString()
	wait := c.awaitReply(alias)
	defer c.dropReply(alias)

	if err := c.sendControl(control.DeclareRequest{Alias: alias, Name: name, TypeID: typeID, Role: role, Loopback: loopback}); err != nil {
		return 0, err
	}

	select {
	case reply := <-wait:
		if reply.err != nil {
			return 0, reply.err
		}
		if !reply.announce.Exists {
			return 0, errors.WrapInvalid(errors.ErrUnknownChannel, "client.Client", "Declare")
		}
		c.conn.SetAlias(alias, reply.announce.Number)
		return reply.announce.Number, nil
	case <-ctx.Done():
		return 0, errors.WrapTransient(ctx.Err(), "client.Client", "Declare")
	case <-time.After(defaultReplyTimeout):
		return 0, errors.WrapTransient(fmt.Errorf("declare reply timed out"), "client.Client", "Declare")
	}
}

// awaitReply registers a pending correlation id and returns the channel
// its reply (success or router-sent Error) will arrive on.
func (c *Client) awaitReply(alias string) chan pendingReply {
	wait := make(chan pendingReply, 1)
	c.mu.Lock()
	c.pending[alias] = wait
	c.mu.Unlock()
	return wait
}

func (c *Client) dropReply(alias string) {
	c.mu.Lock()
	delete(c.pending, alias)
	c.mu.Unlock()
}

// Lookup asks the router whether a channel by name currently exists,
// without joining it.
func (c *Client) Lookup(ctx context.Context, name string) (uint32, bool, error) {
	alias := uuid.NewString()
	wait := c.awaitReply(alias)
	defer c.dropReply(alias)

	if err := c.sendControl(control.LookupRequest{Alias: alias, Name: name}); err != nil {
		return 0, false, err
	}

	select {
	case reply := <-wait:
		if reply.err != nil {
			return 0, false, reply.err
		}
		return reply.announce.Number, reply.announce.Exists, nil
	case <-ctx.Done():
		return 0, false, errors.WrapTransient(ctx.Err(), "client.Client", "Lookup")
	case <-time.After(defaultReplyTimeout):
		return 0, false, errors.WrapTransient(fmt.Errorf("lookup reply timed out"), "client.Client", "Lookup")
	}
}

// Publish sends payload on channel. It returns false if the outbound queue
// overflowed (non-lossy connections only — see §5); the client should treat
// that as a fatal connection error, matching the router's own policy.
func (c *Client) Publish(channel uint32, payload []byte) bool {
	return c.conn.Send(channel, payload)
}

// Subscribe registers handler to receive every payload delivered on
// channel. Only one handler may be registered per channel at a time.
func (c *Client) Subscribe(channel uint32, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[channel] = handler
}

// Unsubscribe asks the router to drop this client from alias's channel and
// stops delivering to its handler.
func (c *Client) Unsubscribe(alias string) error {
	number, ok := c.conn.Alias(alias)
	if ok {
		c.mu.Lock()
		delete(c.subs, number)
		c.mu.Unlock()
	}
	if err := c.sendControl(control.UnsubscribeRequest{Alias: alias}); err != nil {
		return err
	}
	c.conn.ClearAlias(alias)
	return nil
}

// Ping round-trips a liveness probe to the router.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	wait := make(chan struct{}, 1)
	c.mu.Lock()
	c.pongs = append(c.pongs, wait)
	c.mu.Unlock()

	start := time.Now()
	if err := c.sendControl(control.Ping{}); err != nil {
		return 0, err
	}

	select {
	case <-wait:
		return time.Since(start), nil
	case <-ctx.Done():
		return 0, errors.WrapTransient(ctx.Err(), "client.Client", "Ping")
	case <-time.After(defaultReplyTimeout):
		return 0, errors.WrapTransient(fmt.Errorf("ping timed out"), "client.Client", "Ping")
	}
}

// Wait blocks up to timeoutMs for the underlying loop to process one event,
// mirroring the router's own suspension point for callers that want to
// drive the client's event pump themselves instead of relying on Connect's
// background goroutine.
func (c *Client) Wait(timeoutMs int) bool {
	return c.loop.Wait(timeoutMs)
}

// Close disconnects from the router.
func (c *Client) Close() error {
	c.shutdown(nil)
	return c.conn.Close()
}

func (c *Client) shutdown(err error) {
	c.once.Do(func() { close(c.stopped) })
}

func (c *Client) onClosed(_ *conn.Connection, err error) {
	c.shutdown(err)
}

func (c *Client) onPayload(_ *conn.Connection, channel uint32, payload []byte) {
	if channel == frame.ControlChannel {
		c.onControl(payload)
		return
	}
	c.mu.Lock()
	handler := c.subs[channel]
	c.mu.Unlock()
	if handler != nil {
		handler(payload)
	}
}

func (c *Client) onControl(payload []byte) {
	msg, err := control.Decode(payload)
	if err != nil {
		return
	}
	switch m := msg.(type) {
	case control.ChannelAnnounce:
		c.mu.Lock()
		wait, ok := c.pending[m.Alias]
		c.mu.Unlock()
		if ok {
			wait <- pendingReply{announce: m}
		}
	case control.Pong:
		c.mu.Lock()
		var wait chan struct{}
		if len(c.pongs) > 0 {
			wait, c.pongs = c.pongs[0], c.pongs[1:]
		}
		c.mu.Unlock()
		if wait != nil {
			wait <- struct{}{}
		}
	case control.Error:
		c.mu.Lock()
		wait, ok := c.pending[m.Alias]
		c.mu.Unlock()
		if ok {
			wait <- pendingReply{err: errors.WrapInvalid(fmt.Errorf("%s: %s", m.Code, m.Message), "client.Client", "onControl")}
		}
	}
}

func (c *Client) sendControl(msg any) error {
	wire, err := control.Encode(msg)
	if err != nil {
		return errors.WrapFatal(err, "client.Client", "sendControl")
	}
	if ok := c.conn.Send(frame.ControlChannel, wire); !ok {
		return errors.WrapFatal(errors.ErrBackpressure, "client.Client", "sendControl")
	}
	return nil
}
