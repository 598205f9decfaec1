// Package router implements the router process (§4, §6): it accepts
// connections, runs the control-message state machine, fans data out
// through the channel directory, and periodically logs statistics the way
// the original implementation's print_statistics() did (§9).
package router

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lukacu/routio/conn"
	"github.com/lukacu/routio/control"
	"github.com/lukacu/routio/directory"
	"github.com/lukacu/routio/errors"
	"github.com/lukacu/routio/frame"
	"github.com/lukacu/routio/health"
	"github.com/lukacu/routio/ioloop"
	"github.com/lukacu/routio/metric"
)

// defaultQueueCapacity bounds how many outbound chunks a connection may
// queue before the default (non-lossy) backpressure policy disconnects it.
const defaultQueueCapacity = 256

// statsInterval mirrors the original router's 5000ms statistics tick (§9).
const statsInterval = 5 * time.Second

// Router owns one process's channel directory and every connection
// attached to it. The zero value is not usable; use New.
type Router struct {
	loop *ioloop.Loop
	dir  *directory.Directory
	log  *slog.Logger
	metr *metric.MetricsRegistry

	conns map[ioloop.HandlerID]*conn.Connection

	startedAt time.Time

	// connCount and channelCount mirror len(conns)/len(dir.Channels()) so a
	// health check from another goroutine never has to touch the loop
	// thread's unsynchronized state (§9's weak-reference design note).
	connCount    atomic.Int32
	channelCount atomic.Int32
	lastErr      atomic.Value // string
}

// New returns a Router ready to Serve connections. logger may be nil, in
// which case slog.Default() is used.
func New(logger *slog.Logger, reg *metric.MetricsRegistry) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		loop:      ioloop.NewLoop(0),
		dir:       directory.New(),
		log:       logger,
		metr:      reg,
		conns:     make(map[ioloop.HandlerID]*conn.Connection),
		startedAt: time.Now(),
	}
	r.lastErr.Store("")
	return r
}

// Snapshot reports the router's current connection and channel counts for
// a health check, safe to call from any goroutine.
func (r *Router) Snapshot() health.RouterSnapshot {
	return health.RouterSnapshot{
		Connections: int(r.connCount.Load()),
		Channels:    int(r.channelCount.Load()),
		Uptime:      time.Since(r.startedAt),
		LastError:   r.lastErr.Load().(string),
	}
}

func (r *Router) syncChannelCount() {
	r.channelCount.Store(int32(len(r.dir.Channels())))
}

// Serve accepts connections from listener and runs the event loop until
// ctx is cancelled or a termination signal arrives. It returns nil on a
// clean shutdown.
func (r *Router) Serve(ctx context.Context, listener net.Listener) error {
	acceptErr := make(chan error, 1)
	go r.acceptLoop(listener, acceptErr)

	nextStats := time.Now().Add(statsInterval)
	for {
		select {
		case <-ctx.Done():
			_ = listener.Close()
			return nil
		case err := <-acceptErr:
			return err
		default:
		}

		remaining := time.Until(nextStats)
		if remaining < 0 {
			remaining = 0
		}
		if !r.loop.Wait(int(remaining.Milliseconds())) {
			_ = listener.Close()
			return nil
		}
		if time.Now().After(nextStats) {
			r.dumpStatistics()
			nextStats = time.Now().Add(statsInterval)
		}
	}
}

// Accept registers an already-established connection with the router, the
// same way the accept loop registers one from a net.Listener. Exported for
// callers (and tests) that hand the router a connection directly, such as
// one end of a net.Pipe().
func (r *Router) Accept(nc net.Conn) {
	r.accept(nc)
}

// RunOnce drives the router's event loop for a single iteration, blocking
// up to timeoutMs. It does not run the statistics tick that Serve manages;
// callers driving the router outside of Serve can ignore statistics or
// call dumpStatistics themselves.
func (r *Router) RunOnce(timeoutMs int) bool {
	return r.loop.Wait(timeoutMs)
}

func (r *Router) acceptLoop(listener net.Listener, errc chan<- error) {
	for {
		nc, err := listener.Accept()
		if err != nil {
			errc <- err
			return
		}
		r.accept(nc)
	}
}

func (r *Router) accept(nc net.Conn) {
	c, err := conn.New(nc, r.loop, conn.Options{
		QueueCapacity: defaultQueueCapacity,
		OnPayload:     r.onPayload,
		OnClosed:      r.onClosed,
	})
	if err != nil {
		r.log.Error("failed to register connection", "error", err)
		_ = nc.Close()
		return
	}
	r.conns[c.ID()] = c
	r.connCount.Store(int32(len(r.conns)))
}

func (r *Router) onClosed(c *conn.Connection, err error) {
	r.dir.Drop(c)
	delete(r.conns, c.ID())
	r.connCount.Store(int32(len(r.conns)))
	r.syncChannelCount()
	if err != nil {
		r.log.Debug("connection closed", "label", c.Label(), "error", err)
		r.lastErr.Store(err.Error())
	} else {
		r.log.Debug("connection closed", "label", c.Label())
	}
}

func (r *Router) onPayload(c *conn.Connection, channel uint32, payload []byte) {
	if r.metr != nil {
		r.metr.CoreMetrics().RecordFrameReceived("router")
	}
	if channel == frame.ControlChannel {
		r.handleControl(c, payload)
		return
	}
	if c.State() != conn.StateReady {
		c.OnError(errors.WrapInvalid(errors.ErrHandshakeExpected, "router.Router", "onPayload"))
		return
	}
	overflowed, err := r.dir.Publish(channel, c, payload)
	if err != nil {
		r.replyError(c, "", errors.WrapInvalid(err, "router.Router", "onPayload"))
		return
	}
	if r.metr != nil {
		r.metr.CoreMetrics().RecordFramePublished("router", channelLabel(channel))
	}
	for _, target := range overflowed {
		r.log.Warn("subscriber disconnected for exceeding backpressure threshold", "label", target.Label())
		if r.metr != nil {
			r.metr.CoreMetrics().RecordBackpressureDisconnect()
		}
		target.OnError(errors.WrapFatal(errors.ErrBackpressure, "router.Router", "onPayload"))
	}
}

func channelLabel(channel uint32) string {
	return strconv.FormatUint(uint64(channel), 10)
}

func (r *Router) handleControl(c *conn.Connection, payload []byte) {
	msg, err := control.Decode(payload)
	if err != nil {
		c.OnError(errors.WrapFatal(err, "router.Router", "handleControl"))
		return
	}

	if c.State() == conn.StateConnecting {
		hs, ok := msg.(control.Handshake)
		if !ok {
			c.OnError(errors.WrapFatal(errors.ErrHandshakeExpected, "router.Router", "handleControl"))
			return
		}
		c.SetLabel(hs.Label)
		c.SetState(conn.StateReady)
		r.log.Debug("handshake complete", "label", hs.Label, "lossy", hs.Lossy)
		return
	}

	switch m := msg.(type) {
	case control.DeclareRequest:
		r.handleDeclare(c, m)
	case control.UnsubscribeRequest:
		r.handleUnsubscribe(c, m)
	case control.LookupRequest:
		r.handleLookup(c, m)
	case control.Ping:
		r.sendControl(c, control.Pong{})
	default:
		r.replyError(c, "", errors.WrapInvalid(errors.ErrUnknownControlKind, "router.Router", "handleControl"))
	}
}

func (r *Router) handleDeclare(c *conn.Connection, m control.DeclareRequest) {
	role := directory.RoleSubscriber
	if m.Role == control.RolePublisher {
		role = directory.RolePublisher
	}
	ch, err := r.dir.Declare(c, m.Name, m.TypeID, role, m.Loopback)
	if err != nil {
		r.replyError(c, m.Alias, err)
		return
	}
	c.SetAlias(m.Alias, ch.Number)
	r.syncChannelCount()
	r.sendControl(c, control.ChannelAnnounce{Alias: m.Alias, Number: ch.Number, Name: m.Name, TypeID: ch.TypeID, Exists: true})
}

func (r *Router) handleUnsubscribe(c *conn.Connection, m control.UnsubscribeRequest) {
	number, ok := c.Alias(m.Alias)
	if !ok {
		r.replyError(c, m.Alias, errors.WrapInvalid(errors.ErrUnknownAlias, "router.Router", "handleUnsubscribe"))
		return
	}
	if err := r.dir.Unsubscribe(c, number); err != nil {
		r.replyError(c, m.Alias, err)
		return
	}
	c.ClearAlias(m.Alias)
	r.syncChannelCount()
}

func (r *Router) handleLookup(c *conn.Connection, m control.LookupRequest) {
	ch, ok := r.dir.Lookup(m.Name)
	if !ok {
		r.sendControl(c, control.ChannelAnnounce{Alias: m.Alias, Name: m.Name, Exists: false})
		return
	}
	r.sendControl(c, control.ChannelAnnounce{Alias: m.Alias, Number: ch.Number, Name: m.Name, TypeID: ch.TypeID, Exists: true})
}

func (r *Router) sendControl(c *conn.Connection, msg any) {
	wire, err := control.Encode(msg)
	if err != nil {
		r.log.Error("failed to encode control reply", "error", err)
		return
	}
	c.Send(frame.ControlChannel, wire)
}

func (r *Router) replyError(c *conn.Connection, alias string, err error) {
	r.log.Debug("rejecting request", "label", c.Label(), "error", err)
	r.sendControl(c, control.Error{Alias: alias, Code: "invalid", Message: err.Error()})
}

func (r *Router) dumpStatistics() {
	channels := r.dir.Channels()
	r.log.Info("router statistics",
		"connections", len(r.conns),
		"channels", len(channels),
	)
	if r.metr != nil {
		r.metr.CoreMetrics().RecordConnectionsActive("router", len(r.conns))
		r.metr.CoreMetrics().RecordChannelsActive("router", len(channels))
	}
	for _, ch := range channels {
		r.log.Debug("channel statistics",
			"number", ch.Number,
			"type", ch.TypeID,
			"publishers", ch.PublisherCount(),
			"subscribers", ch.SubscriberCount(),
		)
	}
}
