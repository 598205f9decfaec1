package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeIdentifierIsDeterministic(t *testing.T) {
	desc, err := Parse("<test>", `message M { int32 a; float[] b; }`)
	require.NoError(t, err)
	fields := desc.Decls[0].Message.Fields

	first := TypeIdentifier("M", fields)
	second := TypeIdentifier("M", fields)
	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
}

func TestTypeIdentifierDiffersOnFieldChange(t *testing.T) {
	a, err := Parse("<test>", `message M { int32 a; }`)
	require.NoError(t, err)
	b, err := Parse("<test>", `message M { int64 a; }`)
	require.NoError(t, err)

	idA := TypeIdentifier("M", a.Decls[0].Message.Fields)
	idB := TypeIdentifier("M", b.Decls[0].Message.Fields)
	assert.NotEqual(t, idA, idB)
}

func TestTypeIdentifierStableAcrossParses(t *testing.T) {
	desc, err := Parse("<test>", `message M { int32 a; string b; }`)
	require.NoError(t, err)
	desc2, err := Parse("<test>", `message M { int32 a; string b; }`)
	require.NoError(t, err)

	assert.Equal(t,
		TypeIdentifier("M", desc.Decls[0].Message.Fields),
		TypeIdentifier("M", desc2.Decls[0].Message.Fields))
}
