package wire

import "time"

// Header is carried by every user-level message ahead of its payload: the
// originating client's label and the wall-clock time it was produced. It is
// serialized with the payload, not at the framing layer (§3).
type Header struct {
	Source    string
	Timestamp time.Time
}

// NewHeader returns a Header stamped with the current time, following the
// functional-options-free construction the teacher uses for its own
// metadata type before federation support is layered on.
func NewHeader(source string) Header {
	return Header{Source: source, Timestamp: time.Now()}
}

// Marshal appends the header's wire representation to w: the source string,
// then the timestamp as Unix nanoseconds.
func (h Header) Marshal(w *Writer) {
	w.WriteString(h.Source)
	w.WriteInt64(h.Timestamp.UnixNano())
}

// UnmarshalHeader reads a Header previously written by Marshal.
func UnmarshalHeader(r *Reader) (Header, error) {
	source, err := r.ReadString()
	if err != nil {
		return Header{}, err
	}
	nanos, err := r.ReadInt64()
	if err != nil {
		return Header{}, err
	}
	return Header{Source: source, Timestamp: time.Unix(0, nanos).UTC()}, nil
}
