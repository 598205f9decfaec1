package wire

import (
	"fmt"
	"time"
)

// Built-in type identifiers. Unlike generated user types (§4.7, §9) these
// are fixed strings, not a computed hash — mirroring echolib's
// get_type_identifier<Dictionary>() returning the literal "dictionary".
const (
	TypeInt32     = "builtin.int32"
	TypeInt64     = "builtin.int64"
	TypeFloat32   = "builtin.float32"
	TypeFloat64   = "builtin.float64"
	TypeString    = "builtin.string"
	TypeBytes     = "builtin.bytes"
	TypeTimestamp = "builtin.timestamp"
	TypeTensor    = "builtin.tensor"
	TypeDictionary = "builtin.dictionary"
)

// Tensor is a built-in wire type for dense numeric arrays (camera frames,
// detector outputs): a shape, an element type tag, and the raw row-major
// bytes. Routio does not interpret Data; that is the application's concern.
type Tensor struct {
	Shape []int32
	Dtype string
	Data  []byte
}

func registerBuiltins(r *Registry) {
	r.Register(TypeInt32,
		func(v any) ([]byte, error) {
			w := NewWriter(4)
			w.WriteInt32(v.(int32))
			return w.Bytes(), nil
		},
		func(data []byte) (any, error) { return NewReader(data).ReadInt32() },
	)

	r.Register(TypeInt64,
		func(v any) ([]byte, error) {
			w := NewWriter(8)
			w.WriteInt64(v.(int64))
			return w.Bytes(), nil
		},
		func(data []byte) (any, error) { return NewReader(data).ReadInt64() },
	)

	r.Register(TypeFloat32,
		func(v any) ([]byte, error) {
			w := NewWriter(4)
			w.WriteFloat32(v.(float32))
			return w.Bytes(), nil
		},
		func(data []byte) (any, error) { return NewReader(data).ReadFloat32() },
	)

	r.Register(TypeFloat64,
		func(v any) ([]byte, error) {
			w := NewWriter(8)
			w.WriteFloat64(v.(float64))
			return w.Bytes(), nil
		},
		func(data []byte) (any, error) { return NewReader(data).ReadFloat64() },
	)

	r.Register(TypeString,
		func(v any) ([]byte, error) {
			s := v.(string)
			w := NewWriter(4 + len(s))
			w.WriteString(s)
			return w.Bytes(), nil
		},
		func(data []byte) (any, error) { return NewReader(data).ReadString() },
	)

	r.Register(TypeBytes,
		func(v any) ([]byte, error) {
			b := v.([]byte)
			w := NewWriter(4 + len(b))
			w.WriteBytes(b)
			return w.Bytes(), nil
		},
		func(data []byte) (any, error) { return NewReader(data).ReadBytes() },
	)

	r.Register(TypeTimestamp,
		func(v any) ([]byte, error) {
			w := NewWriter(8)
			w.WriteInt64(v.(time.Time).UnixNano())
			return w.Bytes(), nil
		},
		func(data []byte) (any, error) {
			nanos, err := NewReader(data).ReadInt64()
			if err != nil {
				return nil, err
			}
			return time.Unix(0, nanos).UTC(), nil
		},
	)

	r.Register(TypeTensor, marshalTensor, unmarshalTensor)

	r.Register(TypeDictionary, marshalDictionary, unmarshalDictionary)
}

func marshalTensor(v any) ([]byte, error) {
	t, ok := v.(Tensor)
	if !ok {
		return nil, fmt.Errorf("wire: expected Tensor, got %T", v)
	}
	w := NewWriter(8 + 4*len(t.Shape) + len(t.Dtype) + len(t.Data))
	w.WriteUint32(uint32(len(t.Shape)))
	for _, d := range t.Shape {
		w.WriteInt32(d)
	}
	w.WriteString(t.Dtype)
	w.WriteBytes(t.Data)
	return w.Bytes(), nil
}

func unmarshalTensor(data []byte) (any, error) {
	r := NewReader(data)
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	// A shape dimension count can never exceed the bytes actually left in
	// the buffer (each dimension consumes at least 4 bytes); reject it here
	// rather than let a corrupt or adversarial payload drive a multi-GB
	// allocation.
	if int(n) > r.Remaining()/4 {
		return nil, fmt.Errorf("wire: tensor shape length %d exceeds remaining payload", n)
	}
	shape := make([]int32, n)
	for i := range shape {
		shape[i], err = r.ReadInt32()
		if err != nil {
			return nil, err
		}
	}
	dtype, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	data2, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	return Tensor{Shape: shape, Dtype: dtype, Data: append([]byte(nil), data2...)}, nil
}

// Dictionary is a built-in string-to-string map, mirroring echolib's
// Message::pack/unpack<Dictionary> specialization in datatypes.cpp.
type Dictionary map[string]string

func marshalDictionary(v any) ([]byte, error) {
	d, ok := v.(Dictionary)
	if !ok {
		return nil, fmt.Errorf("wire: expected Dictionary, got %T", v)
	}
	w := NewWriter(64)
	w.WriteUint32(uint32(len(d)))
	for k, val := range d {
		w.WriteString(k)
		w.WriteString(val)
	}
	return w.Bytes(), nil
}

func unmarshalDictionary(data []byte) (any, error) {
	r := NewReader(data)
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	// Each entry is a key and a value string, each with at least a 4-byte
	// length prefix; an entry count that couldn't possibly fit in what's
	// left of the buffer is rejected here rather than driving a huge map
	// allocation (the same hazard unmarshalTensor guards against above).
	if int(n) > r.Remaining()/8 {
		return nil, fmt.Errorf("wire: dictionary entry count %d exceeds remaining payload", n)
	}
	d := make(Dictionary, n)
	for i := uint32(0); i < n; i++ {
		k, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		d[k] = v
	}
	return d, nil
}
