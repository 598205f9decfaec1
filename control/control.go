// Package control defines the messages exchanged on frame.ControlChannel:
// the handshake, declare/subscribe/unsubscribe requests, channel lookup and
// announcement, and liveness pings. Every message is a thin wrapper around
// wire.Writer/wire.Reader, the same codec user data types use, so control
// traffic and data traffic share one framing and encoding layer (§4.1, §6).
package control

import (
	"github.com/lukacu/routio/errors"
	"github.com/lukacu/routio/wire"
)

// Kind tags the first byte of every control-channel payload.
type Kind uint8

const (
	KindHandshake Kind = iota + 1
	KindDeclareRequest
	KindUnsubscribeRequest
	KindLookupRequest
	KindChannelAnnounce
	KindPing
	KindPong
	KindError
)

// Role mirrors directory.Role without importing the directory package,
// keeping control free of a dependency cycle (directory will depend on
// conn, and router wires control, conn, and directory together).
type Role uint8

const (
	RolePublisher Role = iota
	RoleSubscriber
)

// Handshake is the first message a client must send on a connection; the
// router rejects any other message kind before it has seen one (§6). The
// router does not send a Handshake of its own back to the client.
type Handshake struct {
	Label string
	Lossy bool
}

// DeclareRequest asks the router to create or join a channel as a
// publisher or subscriber, optionally with the loopback delivery option
// from §9. The backpressure policy from §5 (drop-oldest vs. disconnect) is
// not per-subscription: Handshake carries one connection-wide Lossy flag,
// which the client applies to its own outbound queue. The router only logs
// that flag; its own queue for every connection is non-lossy, so a
// subscriber that overflows it is disconnected — see DESIGN.md.
type DeclareRequest struct {
	Alias    string
	Name     string
	TypeID   string
	Role     Role
	Loopback bool
}

// UnsubscribeRequest asks the router to drop the sender from a channel it
// previously joined, named by its local alias.
type UnsubscribeRequest struct {
	Alias string
}

// LookupRequest asks the router whether a channel by this name currently
// exists, without joining it. Alias correlates the router's reply with
// this request the same way DeclareRequest's does, even though a lookup
// never joins the channel under that alias.
type LookupRequest struct {
	Alias string
	Name  string
}

// ChannelAnnounce is the router's reply to both a successful DeclareRequest
// and a LookupRequest. It is sent only to the requester; the router does
// not broadcast it when a channel is created. It carries the alias the
// requester should record (§9 supplements this distinction from the
// original implementation).
type ChannelAnnounce struct {
	Alias  string
	Number uint32
	Name   string
	TypeID string
	Exists bool
}

// Ping and Pong carry no fields; their kind byte is the whole message.
type Ping struct{}
type Pong struct{}

// Error reports a rejected request back to its sender without closing the
// connection (§7's "invalid" error class). Alias correlates the error
// with the DeclareRequest or LookupRequest that caused it, the same way a
// successful ChannelAnnounce does; it is empty when the rejection isn't
// tied to a specific pending request.
type Error struct {
	Alias   string
	Code    string
	Message string
}

// Encode serializes msg with its kind tag as the first byte.
func Encode(msg any) ([]byte, error) {
	w := wire.NewWriter(64)
	switch m := msg.(type) {
	case Handshake:
		w.WriteUint8(uint8(KindHandshake))
		w.WriteString(m.Label)
		w.WriteUint8(boolByte(m.Lossy))
	case DeclareRequest:
		w.WriteUint8(uint8(KindDeclareRequest))
		w.WriteString(m.Alias)
		w.WriteString(m.Name)
		w.WriteString(m.TypeID)
		w.WriteUint8(uint8(m.Role))
		w.WriteUint8(boolByte(m.Loopback))
	case UnsubscribeRequest:
		w.WriteUint8(uint8(KindUnsubscribeRequest))
		w.WriteString(m.Alias)
	case LookupRequest:
		w.WriteUint8(uint8(KindLookupRequest))
		w.WriteString(m.Alias)
		w.WriteString(m.Name)
	case ChannelAnnounce:
		w.WriteUint8(uint8(KindChannelAnnounce))
		w.WriteString(m.Alias)
		w.WriteUint32(m.Number)
		w.WriteString(m.Name)
		w.WriteString(m.TypeID)
		w.WriteUint8(boolByte(m.Exists))
	case Ping:
		w.WriteUint8(uint8(KindPing))
	case Pong:
		w.WriteUint8(uint8(KindPong))
	case Error:
		w.WriteUint8(uint8(KindError))
		w.WriteString(m.Alias)
		w.WriteString(m.Code)
		w.WriteString(m.Message)
	default:
		return nil, errors.WrapInvalid(errors.ErrUnknownControlKind, "control", "Encode")
	}
	return w.Bytes(), nil
}

// Decode inspects the kind tag and returns the typed message it identifies
// as any. Callers use a type switch to recover the concrete type.
func Decode(data []byte) (any, error) {
	r := wire.NewReader(data)
	k, err := r.ReadUint8()
	if err != nil {
		return nil, errors.WrapFatal(err, "control", "Decode")
	}
	switch Kind(k) {
	case KindHandshake:
		label, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		lossy, err := r.ReadUint8()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		return Handshake{Label: label, Lossy: lossy != 0}, nil
	case KindDeclareRequest:
		alias, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		typeID, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		role, err := r.ReadUint8()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		loopback, err := r.ReadUint8()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		return DeclareRequest{
			Alias: alias, Name: name, TypeID: typeID, Role: Role(role),
			Loopback: loopback != 0,
		}, nil
	case KindUnsubscribeRequest:
		alias, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		return UnsubscribeRequest{Alias: alias}, nil
	case KindLookupRequest:
		alias, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		return LookupRequest{Alias: alias, Name: name}, nil
	case KindChannelAnnounce:
		alias, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		number, err := r.ReadUint32()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		typeID, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		exists, err := r.ReadUint8()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		return ChannelAnnounce{Alias: alias, Number: number, Name: name, TypeID: typeID, Exists: exists != 0}, nil
	case KindPing:
		return Ping{}, nil
	case KindPong:
		return Pong{}, nil
	case KindError:
		alias, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		code, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		message, err := r.ReadString()
		if err != nil {
			return nil, errors.WrapInvalid(err, "control", "Decode")
		}
		return Error{Alias: alias, Code: code, Message: message}, nil
	default:
		return nil, errors.WrapInvalid(errors.ErrUnknownControlKind, "control", "Decode")
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
