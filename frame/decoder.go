package frame

import (
	"github.com/lukacu/routio/errors"
)

// state names the streaming decoder's position within the current chunk,
// per §4.1's state machine: awaiting-header, awaiting-body, ready.
type state int

const (
	awaitingHeader state = iota
	awaitingBody
)

// partial is a channel's in-progress reassembly buffer.
type partial struct {
	total uint32
	data  []byte
}

// Payload is a completed, reassembled message ready for delivery upward.
type Payload struct {
	Channel uint32
	Data    []byte
}

// Decoder is the per-connection streaming state machine that turns a raw
// byte stream into completed payloads. It owns its reassembly buffers;
// Feed never blocks and never surfaces a partial payload. Any violation of
// the chunk invariants in §4.1 returns a fatal FramingError — the caller
// (conn.Connection) terminates the connection on such an error.
type Decoder struct {
	st     state
	header [HeaderSize]byte
	have   int // bytes of header or body accumulated so far

	curChannel uint32
	curTotal   uint32
	curOffset  uint32
	curLength  uint32
	curBody    []byte

	partials map[uint32]*partial
}

// NewDecoder returns a Decoder ready to consume bytes from a fresh
// connection.
func NewDecoder() *Decoder {
	return &Decoder{partials: make(map[uint32]*partial)}
}

// Feed appends newly read bytes to the decoder and returns every payload
// that became complete as a result, in the order their final chunk arrived.
func (d *Decoder) Feed(data []byte) ([]Payload, error) {
	var done []Payload
	for len(data) > 0 {
		switch d.st {
		case awaitingHeader:
			n := copy(d.header[d.have:], data)
			d.have += n
			data = data[n:]
			if d.have < HeaderSize {
				continue
			}
			channel, total, offset, length := decodeHeader(d.header[:])
			if offset > total || length > total-offset {
				return done, errors.WrapFatal(errors.ErrChunkExceedsTotal, "frame.Decoder", "Feed")
			}
			if p, ok := d.partials[channel]; ok && p.total != total {
				return done, errors.WrapFatal(errors.ErrTotalMismatch, "frame.Decoder", "Feed")
			}
			if p, ok := d.partials[channel]; ok && offset != uint32(len(p.data)) {
				return done, errors.WrapFatal(errors.ErrChunkExceedsTotal, "frame.Decoder", "Feed")
			}
			if _, ok := d.partials[channel]; !ok && offset != 0 {
				return done, errors.WrapFatal(errors.ErrChunkExceedsTotal, "frame.Decoder", "Feed")
			}

			d.curChannel, d.curTotal, d.curOffset, d.curLength = channel, total, offset, length
			d.curBody = make([]byte, 0, length)
			d.have = 0
			if length == 0 {
				payload, complete := d.completeChunk()
				if complete {
					done = append(done, payload)
				}
				continue
			}
			d.st = awaitingBody

		case awaitingBody:
			need := int(d.curLength) - len(d.curBody)
			n := need
			if n > len(data) {
				n = len(data)
			}
			d.curBody = append(d.curBody, data[:n]...)
			data = data[n:]
			if len(d.curBody) < int(d.curLength) {
				continue
			}
			payload, complete := d.completeChunk()
			if complete {
				done = append(done, payload)
			}
		}
	}
	return done, nil
}

// completeChunk folds the just-finished chunk into its channel's
// reassembly buffer, returning the full payload once the buffer reaches
// the declared total length.
func (d *Decoder) completeChunk() (Payload, bool) {
	p, ok := d.partials[d.curChannel]
	if !ok {
		p = &partial{total: d.curTotal, data: make([]byte, 0, d.curTotal)}
		d.partials[d.curChannel] = p
	}
	p.data = append(p.data, d.curBody...)

	d.st = awaitingHeader
	d.have = 0
	d.curBody = nil

	if uint32(len(p.data)) < p.total {
		return Payload{}, false
	}

	delete(d.partials, d.curChannel)
	return Payload{Channel: d.curChannel, Data: p.data}, true
}

// Drop releases any in-progress reassembly buffer for channel, used when a
// subscribing connection goes away mid-delivery (scenario 4 of §8).
func (d *Decoder) Drop(channel uint32) {
	delete(d.partials, channel)
}
