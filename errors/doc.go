// Package errors provides the error kinds and classification used across
// Routio's frame codec, connection, directory, router, client and DSL
// compiler, plus helpers for consistent wrapping.
//
// Errors are classified into three dispositions:
//
//   - Transient: safe to retry (context deadlines, network hiccups).
//   - Invalid: the request is rejected but the connection survives
//     (TypeMismatch, UnknownChannel, ProtocolError).
//   - Fatal: the offending connection is terminated (FramingError, IoError).
//
// Use errors.Is / errors.As against the sentinel values here; ClassifiedError
// implements Unwrap so standard error chains keep working.
package errors
