package frame

import (
	"encoding/binary"
)

// MaxChunk is the largest payload a single chunk may carry. Payloads larger
// than MaxChunk are split into contiguous chunks in offset order (§4.1).
// 64 KiB sits at the upper end of the typical 32-64 KiB choice the
// specification calls out.
const MaxChunk = 64 * 1024

// ControlChannel is the reserved channel number for handshake and control
// messages (§6); all other channel numbers carry data.
const ControlChannel uint32 = 0

// HeaderSize is the fixed width of a chunk header: four little-endian
// uint32 fields (channel, total length, chunk offset, chunk length).
const HeaderSize = 16

// Chunk is one on-wire unit: a header plus its payload bytes.
type Chunk struct {
	Channel     uint32
	TotalLength uint32
	Offset      uint32
	Length      uint32
	Payload     []byte
}

// Encode appends the chunk's wire bytes (header + payload) to dst and
// returns the extended slice.
func (c Chunk) Encode(dst []byte) []byte {
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], c.Channel)
	binary.LittleEndian.PutUint32(hdr[4:8], c.TotalLength)
	binary.LittleEndian.PutUint32(hdr[8:12], c.Offset)
	binary.LittleEndian.PutUint32(hdr[12:16], c.Length)
	dst = append(dst, hdr[:]...)
	dst = append(dst, c.Payload...)
	return dst
}

// Split divides payload into one or more chunks addressed to channel, each
// at most MaxChunk bytes, in offset order. A zero-length payload still
// yields exactly one chunk (offset 0, length 0) so empty messages round-trip.
func Split(channel uint32, payload []byte) []Chunk {
	total := uint32(len(payload))
	if len(payload) <= MaxChunk {
		return []Chunk{{Channel: channel, TotalLength: total, Offset: 0, Length: total, Payload: payload}}
	}

	var chunks []Chunk
	for offset := 0; offset < len(payload); offset += MaxChunk {
		end := offset + MaxChunk
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, Chunk{
			Channel:     channel,
			TotalLength: total,
			Offset:      uint32(offset),
			Length:      uint32(end - offset),
			Payload:     payload[offset:end],
		})
	}
	return chunks
}

// decodeHeader decodes raw header bytes (len(hdr) == HeaderSize) into the
// four chunk header fields without allocating a payload slice.
func decodeHeader(hdr []byte) (channel, total, offset, length uint32) {
	channel = binary.LittleEndian.Uint32(hdr[0:4])
	total = binary.LittleEndian.Uint32(hdr[4:8])
	offset = binary.LittleEndian.Uint32(hdr[8:12])
	length = binary.LittleEndian.Uint32(hdr[12:16])
	return
}
