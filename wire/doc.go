// Package wire defines Routio's typed message payloads: the small set of
// built-in scalar/tensor types, the per-message Header, and the process-wide
// type registry that maps a textual type identifier to a pack/unpack pair.
//
// Each registered type is a Marshaler/Unmarshaler pair (typically built on
// Writer/Reader) keyed by its type identifier: a stable textual hash of its
// structural description
// (computed by the dsl package for generated types, or a fixed string for
// the built-ins, mirroring echolib's get_type_identifier<Dictionary>()).
// Wire dispatch is a registry lookup, never reflection, per the design
// note in §9 of the specification.
package wire
