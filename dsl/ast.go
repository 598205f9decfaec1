// Package dsl implements the message description language compiler: a
// lexer, a recursive-descent parser producing an AST, and a deterministic
// code emitter for C++ and Python (§4.7, §9). Grammar and error shape are
// grounded on the reference implementation's generator/parser.cpp.
package dsl

// Position locates a token in its source file for diagnostics.
type Position struct {
	File   string
	Line   int // 1-based
	Column int // 1-based
}

// Value is one of the scalar literal kinds the grammar's Value production
// accepts: number, string, or bool.
type Value struct {
	Number  float64
	String  string
	Bool    bool
	IsFloat bool
	IsBool  bool
	// Neither IsFloat nor IsBool set means the value is a string.
}

// KeywordArg is one `name=value` entry of a Properties list.
type KeywordArg struct {
	Name  string
	Value Value
}

// Properties is a field or include's optional `( ... )` annotation list.
// The grammar accepts either an all-keyword list or a leading run of
// positional values followed by keyword entries; both shapes are
// preserved as written. Routio treats Properties as opaque pass-through
// metadata, per the reference emitter's own behavior.
type Properties struct {
	Args   []Value
	Kwargs []KeywordArg
}

// FieldArray marks a field as an array. Length is nil for an unspecified
// (variable) length.
type FieldArray struct {
	Length *int
}

// Field is one member of a Structure or Message.
type Field struct {
	Type       string
	Array      *FieldArray
	Name       string
	Properties *Properties
	Default    *Value
	Pos        Position
}

// Enumerate declares a named set of symbolic values.
type Enumerate struct {
	Name   string
	Values []string
	Pos    Position
}

// Structure declares a plain field-carrying type with no pub/sub binding.
type Structure struct {
	Name   string
	Fields []Field
	Pos    Position
}

// Message declares a field-carrying type that also gets a generated
// typed-publisher/typed-subscriber pair bound to its type identifier.
type Message struct {
	Name   string
	Fields []Field
	Pos    Position
}

// Include pulls another description's declarations into this one's
// namespace, optionally annotated with Properties.
type Include struct {
	File       string
	Properties *Properties
	Pos        Position
}

// Import is a bare reference to another description file, without
// Include's optional property annotation.
type Import struct {
	File string
	Pos  Position
}

// ExternalLanguage binds one target language's native container and
// converter hooks for an External structure.
type ExternalLanguage struct {
	Language string
	Container string
	Sources  []string
	Default  string
	Read     string
	Write    string
}

// External declares a structure whose representation is a hand-written
// native type per target language rather than generated fields.
type External struct {
	Name      string
	Languages []ExternalLanguage
	Pos       Position
}

// Decl is one top-level declaration. Exactly one field is non-nil.
type Decl struct {
	Enumerate *Enumerate
	Structure *Structure
	Message   *Message
	External  *External
	Include   *Include
	Import    *Import
}

// Namespace is the optional leading `namespace a.b.c;` declaration.
type Namespace struct {
	Name string
}

// Description is the parsed form of one DSL source file.
type Description struct {
	Namespace *Namespace
	Decls     []Decl
}
