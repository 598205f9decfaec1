// Package directory implements the channel directory (§4.4): the in-memory
// map from channel number to its type, publishers, and subscribers. The
// directory is only ever touched from the loop thread (see ioloop's doc
// comment), so it needs no locking of its own.
package directory

import (
	"time"

	"github.com/lukacu/routio/conn"
	"github.com/lukacu/routio/errors"
	"github.com/lukacu/routio/frame"
)

// Role distinguishes why a connection is registered against a channel.
type Role int

const (
	RolePublisher Role = iota
	RoleSubscriber
)

// subscription records one subscriber's delivery preference.
type subscription struct {
	conn     *conn.Connection
	loopback bool
}

// Channel is one entry in the directory: a type identifier plus the set of
// connections publishing or subscribed to it.
type Channel struct {
	Number      uint32
	TypeID      string
	CreatedAt   time.Time
	publishers  map[*conn.Connection]struct{}
	subscribers map[*conn.Connection]*subscription
}

func newChannel(number uint32, typeID string) *Channel {
	return &Channel{
		Number:      number,
		TypeID:      typeID,
		CreatedAt:   time.Now(),
		publishers:  make(map[*conn.Connection]struct{}),
		subscribers: make(map[*conn.Connection]*subscription),
	}
}

func (ch *Channel) empty() bool {
	return len(ch.publishers) == 0 && len(ch.subscribers) == 0
}

// PublisherCount and SubscriberCount support the router's statistics dump.
func (ch *Channel) PublisherCount() int  { return len(ch.publishers) }
func (ch *Channel) SubscriberCount() int { return len(ch.subscribers) }

// Directory owns the channel-number → Channel map. Connections hold only
// channel numbers, never pointers into the directory (§9's weak-reference
// design note), so Drop never needs to chase back-references out of conn.
type Directory struct {
	byNumber map[uint32]*Channel
	byName   map[string]uint32
	nextNum  uint32
	free     []uint32
}

// New returns an empty directory. Channel number 0 is reserved for control
// traffic (frame.ControlChannel) and is never allocated here.
func New() *Directory {
	return &Directory{
		byNumber: make(map[uint32]*Channel),
		byName:   make(map[string]uint32),
		nextNum:  1,
	}
}

// allocate returns a fresh channel number, reusing one freed by a prior GC
// before minting a new one.
func (d *Directory) allocate() uint32 {
	if n := len(d.free); n > 0 {
		num := d.free[n-1]
		d.free = d.free[:n-1]
		return num
	}
	num := d.nextNum
	d.nextNum++
	return num
}

// Declare registers connection against the channel named by name, creating
// it with typeID if it does not yet exist. A pre-existing channel whose
// type differs from typeID is a TypeMismatch (§4.4's type-per-channel
// invariant); role records why this connection is joining.
func (d *Directory) Declare(c *conn.Connection, name, typeID string, role Role, loopback bool) (*Channel, error) {
	num, ok := d.byName[name]
	var ch *Channel
	if ok {
		ch = d.byNumber[num]
		if ch.TypeID != typeID {
			return nil, errors.WrapInvalid(errors.ErrTypeMismatch, "directory.Directory", "Declare")
		}
	} else {
		num = d.allocate()
		ch = newChannel(num, typeID)
		d.byNumber[num] = ch
		d.byName[name] = num
	}

	switch role {
	case RolePublisher:
		ch.publishers[c] = struct{}{}
	case RoleSubscriber:
		ch.subscribers[c] = &subscription{conn: c, loopback: loopback}
	}
	return ch, nil
}

// Channel looks up a channel by its number.
func (d *Directory) Channel(number uint32) (*Channel, bool) {
	ch, ok := d.byNumber[number]
	return ch, ok
}

// Lookup finds a channel by the name it was declared under, without
// joining it, for the router's LookupRequest handling (§4.4).
func (d *Directory) Lookup(name string) (*Channel, bool) {
	num, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	ch, ok := d.byNumber[num]
	return ch, ok
}

// Unsubscribe removes c as a subscriber of channel number, garbage
// collecting the channel if it becomes empty.
func (d *Directory) Unsubscribe(c *conn.Connection, number uint32) error {
	ch, ok := d.byNumber[number]
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownChannel, "directory.Directory", "Unsubscribe")
	}
	delete(ch.subscribers, c)
	d.gc(ch)
	return nil
}

// unpublish removes c as a publisher of ch, garbage collecting the
// channel if it becomes empty.
func (d *Directory) unpublish(c *conn.Connection, ch *Channel) {
	delete(ch.publishers, c)
	d.gc(ch)
}

// gc removes an emptied channel from both indexes and frees its number for
// reuse, per §4.4's channel-lifetime rules.
func (d *Directory) gc(ch *Channel) {
	if !ch.empty() {
		return
	}
	for name, num := range d.byName {
		if num == ch.Number {
			delete(d.byName, name)
			break
		}
	}
	delete(d.byNumber, ch.Number)
	d.free = append(d.free, ch.Number)
}

// Publish fans payload out to every subscriber of number except from
// itself, unless that subscriber opted into loopback delivery. It returns
// the list of subscribers whose outbound queue overflowed — the caller
// must close each of those connections per §5's default backpressure
// policy (conn.Connection.SendEncoded applies the drop-oldest policy
// instead for connections created with conn.Options.Lossy, so those never
// appear here; the router creates every connection non-lossy).
//
// payload is framed once, up front, and the resulting wire bytes are
// shared by reference across every subscriber's outbound queue — none of
// them mutate what they're handed, so one allocation serves the whole
// fan-out instead of one per subscriber.
func (d *Directory) Publish(number uint32, from *conn.Connection, payload []byte) ([]*conn.Connection, error) {
	ch, ok := d.byNumber[number]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownChannel, "directory.Directory", "Publish")
	}

	wire := frame.Encode(number, payload)

	var overflowed []*conn.Connection
	for target, sub := range ch.subscribers {
		if target == from && !sub.loopback {
			continue
		}
		if ok := target.SendEncoded(wire); !ok {
			overflowed = append(overflowed, target)
		}
	}
	return overflowed, nil
}

// Drop removes c from every channel it participates in as publisher or
// subscriber, garbage collecting any channel this empties. Safe to call
// for a connection that never joined any channel.
func (d *Directory) Drop(c *conn.Connection) {
	for _, ch := range d.byNumber {
		if _, isPub := ch.publishers[c]; isPub {
			d.unpublish(c, ch)
		}
		if _, isSub := ch.subscribers[c]; isSub {
			delete(ch.subscribers, c)
			d.gc(ch)
		}
	}
}

// Channels returns a snapshot of every live channel, used by the router's
// periodic statistics dump (§9).
func (d *Directory) Channels() []*Channel {
	out := make([]*Channel, 0, len(d.byNumber))
	for _, ch := range d.byNumber {
		out = append(out, ch)
	}
	return out
}
