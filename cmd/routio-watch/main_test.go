package main

import (
	"testing"

	"github.com/lukacu/routio/wire"
)

func TestPrintPayloadDoesNotPanicOnMalformedPayload(t *testing.T) {
	printPayload("frames", "builtin.tensor", []byte("not a tensor"))
}

func TestPrintPayloadDecodesKnownType(t *testing.T) {
	data, err := wire.Default.Marshal(wire.TypeDictionary, wire.Dictionary{"k": "v"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	printPayload("meta", wire.TypeDictionary, data)
}
