package dsl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamespaceAndEnumerate(t *testing.T) {
	desc, err := Parse("<test>", `namespace x.y; enumerate Color { R, G, B }`)
	require.NoError(t, err)
	require.NotNil(t, desc.Namespace)
	assert.Equal(t, "x.y", desc.Namespace.Name)
	require.Len(t, desc.Decls, 1)
	require.NotNil(t, desc.Decls[0].Enumerate)
	assert.Equal(t, []string{"R", "G", "B"}, desc.Decls[0].Enumerate.Values)
}

func TestParseMessageWithArrayFields(t *testing.T) {
	desc, err := Parse("<test>", `message M { int32 a; float[] b; string[3] c; }`)
	require.NoError(t, err)
	require.Len(t, desc.Decls, 1)
	m := desc.Decls[0].Message
	require.NotNil(t, m)
	require.Len(t, m.Fields, 3)

	assert.Equal(t, "a", m.Fields[0].Name)
	assert.Nil(t, m.Fields[0].Array)

	assert.Equal(t, "b", m.Fields[1].Name)
	require.NotNil(t, m.Fields[1].Array)
	assert.Nil(t, m.Fields[1].Array.Length)

	assert.Equal(t, "c", m.Fields[2].Name)
	require.NotNil(t, m.Fields[2].Array)
	require.NotNil(t, m.Fields[2].Array.Length)
	assert.Equal(t, 3, *m.Fields[2].Array.Length)
}

func TestParseMessageFieldsMatchExpectedShape(t *testing.T) {
	desc, err := Parse("<test>", `message M { int32 a; float[] b; string[3] c; }`)
	require.NoError(t, err)

	three := 3
	want := []Field{
		{Type: "int32", Name: "a"},
		{Type: "float", Name: "b", Array: &FieldArray{}},
		{Type: "string", Name: "c", Array: &FieldArray{Length: &three}},
	}

	// Position is populated by the lexer and irrelevant to the field
	// shape itself; go-cmp reports a structural diff across the whole
	// slice (including through the Array pointer) far more usefully than
	// reflect-based equality would on a mismatch.
	if diff := cmp.Diff(want, desc.Decls[0].Message.Fields, cmpopts.IgnoreFields(Field{}, "Pos", "Properties")); diff != "" {
		t.Errorf("field shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFieldWithPropertiesAndDefault(t *testing.T) {
	desc, err := Parse("<test>", `structure S { int32 a (units="m") = 5; }`)
	require.NoError(t, err)
	f := desc.Decls[0].Structure.Fields[0]
	require.NotNil(t, f.Properties)
	require.Len(t, f.Properties.Kwargs, 1)
	assert.Equal(t, "units", f.Properties.Kwargs[0].Name)
	assert.Equal(t, "m", f.Properties.Kwargs[0].Value.String)
	require.NotNil(t, f.Default)
	assert.Equal(t, float64(5), f.Default.Number)
}

func TestParseExternal(t *testing.T) {
	desc, err := Parse("<test>", `external Image (
		language cpp "cv::Mat" from "opencv2/core.hpp" default "cv::Mat()";
		language python "numpy.ndarray" from "numpy" default "None" read "decode" write "encode";
	);`)
	require.NoError(t, err)
	ext := desc.Decls[0].External
	require.NotNil(t, ext)
	require.Len(t, ext.Languages, 2)
	assert.Equal(t, "cpp", ext.Languages[0].Language)
	assert.Equal(t, "cv::Mat", ext.Languages[0].Container)
	assert.Equal(t, []string{"opencv2/core.hpp"}, ext.Languages[0].Sources)
	assert.Equal(t, "decode", ext.Languages[1].Read)
	assert.Equal(t, "encode", ext.Languages[1].Write)
}

func TestParseIncludeAndImport(t *testing.T) {
	desc, err := Parse("<test>", `include "common.desc" (shared=true); import "other.desc";`)
	require.NoError(t, err)
	require.Len(t, desc.Decls, 2)
	assert.Equal(t, "common.desc", desc.Decls[0].Include.File)
	require.NotNil(t, desc.Decls[0].Include.Properties)
	assert.Equal(t, "other.desc", desc.Decls[1].Import.File)
}

func TestParseUnterminatedStringReportsPosition(t *testing.T) {
	_, err := Parse("bad.desc", "message M { string a = \"unterminated\n")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad.desc", pe.Pos.File)
}

func TestParseUnknownDeclarationKeyword(t *testing.T) {
	_, err := Parse("<test>", "bogus Foo {}")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseCommentsAreIgnored(t *testing.T) {
	desc, err := Parse("<test>", "# a comment\nmessage M { int32 a; } # trailing\n")
	require.NoError(t, err)
	require.Len(t, desc.Decls, 1)
}
