package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeRoundTrip(t *testing.T) {
	wire, err := Encode(Handshake{Label: "cam0", Lossy: true})
	require.NoError(t, err)

	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, Handshake{Label: "cam0", Lossy: true}, got)
}

func TestDeclareRequestRoundTrip(t *testing.T) {
	req := DeclareRequest{Alias: "frames", Name: "frames", TypeID: "builtin.tensor", Role: RoleSubscriber, Loopback: true}
	wire, err := Encode(req)
	require.NoError(t, err)

	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestChannelAnnounceRoundTrip(t *testing.T) {
	msg := ChannelAnnounce{Alias: "frames", Number: 7, Name: "frames", TypeID: "builtin.tensor", Exists: true}
	wire, err := Encode(msg)
	require.NoError(t, err)

	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestLookupRequestRoundTrip(t *testing.T) {
	req := LookupRequest{Alias: "lookup-1", Name: "frames"}
	wire, err := Encode(req)
	require.NoError(t, err)

	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestErrorRoundTrip(t *testing.T) {
	msg := Error{Alias: "frames", Code: "invalid", Message: "declared type identifier does not match channel"}
	wire, err := Encode(msg)
	require.NoError(t, err)

	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestPingPongRoundTrip(t *testing.T) {
	wire, err := Encode(Ping{})
	require.NoError(t, err)
	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, Ping{}, got)

	wire, err = Encode(Pong{})
	require.NoError(t, err)
	got, err = Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, Pong{}, got)
}

func TestDecodeTruncatedIsInvalid(t *testing.T) {
	wire, err := Encode(Handshake{Label: "cam0"})
	require.NoError(t, err)

	_, err = Decode(wire[:2])
	assert.Error(t, err)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte{255})
	assert.Error(t, err)
}
