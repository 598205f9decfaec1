package frame

// Encode serializes payload addressed to channel as one or more chunks and
// returns the concatenated wire bytes ready to be queued on a connection's
// outbound side.
func Encode(channel uint32, payload []byte) []byte {
	chunks := Split(channel, payload)
	out := make([]byte, 0, len(payload)+len(chunks)*HeaderSize)
	for _, c := range chunks {
		out = c.Encode(out)
	}
	return out
}
