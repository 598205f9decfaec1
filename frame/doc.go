// Package frame implements Routio's wire framing: encoding a payload into
// one or more fixed-header chunks and decoding a byte stream back into
// complete payloads.
//
// A chunk header is sixteen bytes, little-endian (§4.1):
//
//	u32 channel       // 0 reserved for control
//	u32 total_length  // bytes of the full payload
//	u32 chunk_offset
//	u32 chunk_length
//
// followed by chunk_length bytes of payload. A payload at or under MaxChunk
// is sent as exactly one chunk; larger payloads are split into contiguous,
// offset-ordered chunks. Decoding is a streaming state machine per
// connection: awaiting-header, awaiting-body, ready-to-reassemble. It never
// surfaces a partial payload (§5) and rejects any chunk whose declared
// (offset, length, total) is inconsistent with §4.1's invariants.
package frame
