package client

import (
	"context"

	"github.com/lukacu/routio/errors"
	"github.com/lukacu/routio/wire"
)

// TypedPublisher wraps a declared channel with the marshal step for a
// single wire type, so callers pass Go values instead of raw payloads.
type TypedPublisher[T any] struct {
	client  *Client
	channel uint32
	typeID  string
	reg     *wire.Registry
}

// DeclarePublisher declares name as a publisher channel of typeID and
// returns a TypedPublisher bound to it. reg defaults to wire.Default when
// nil, matching generated code's usual registration target.
func DeclarePublisher[T any](ctx context.Context, c *Client, name, typeID string, reg *wire.Registry) (*TypedPublisher[T], error) {
	if reg == nil {
		reg = wire.Default
	}
	number, err := c.Declare(ctx, name, typeID, RolePublisher, false)
	if err != nil {
		return nil, err
	}
	return &TypedPublisher[T]{client: c, channel: number, typeID: typeID, reg: reg}, nil
}

// Channel returns the router-assigned channel number this publisher was
// bound to.
func (p *TypedPublisher[T]) Channel() uint32 { return p.channel }

// Publish marshals value with the publisher's registered type codec and
// sends it. It returns false on backpressure overflow, same as Client.Publish.
func (p *TypedPublisher[T]) Publish(value T) (bool, error) {
	data, err := p.reg.Marshal(p.typeID, value)
	if err != nil {
		return false, errors.WrapInvalid(err, "client.TypedPublisher", "Publish")
	}
	return p.client.Publish(p.channel, data), nil
}

// TypedSubscriber wraps a declared channel with the unmarshal step for a
// single wire type, delivering decoded values instead of raw payloads.
type TypedSubscriber[T any] struct {
	client  *Client
	channel uint32
	typeID  string
	reg     *wire.Registry
}

// DeclareSubscriber declares name as a subscriber channel of typeID,
// registers handler to receive every decoded message, and returns a
// TypedSubscriber bound to it.
func DeclareSubscriber[T any](ctx context.Context, c *Client, name, typeID string, loopback bool, reg *wire.Registry, handler func(T)) (*TypedSubscriber[T], error) {
	if reg == nil {
		reg = wire.Default
	}
	number, err := c.Declare(ctx, name, typeID, RoleSubscriber, loopback)
	if err != nil {
		return nil, err
	}
	s := &TypedSubscriber[T]{client: c, channel: number, typeID: typeID, reg: reg}
	c.Subscribe(number, func(payload []byte) {
		value, err := reg.Unmarshal(typeID, payload)
		if err != nil {
			return
		}
		if typed, ok := value.(T); ok {
			handler(typed)
		}
	})
	return s, nil
}

// Channel returns the router-assigned channel number this subscriber was
// bound to.
func (s *TypedSubscriber[T]) Channel() uint32 { return s.channel }
