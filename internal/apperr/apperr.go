// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package apperr defines the error taxonomy the HTTP layer maps to status
// codes. Domain packages return (or wrap) these sentinels instead of bare
// strings so the control layer never has to pattern-match error text.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the purpose of HTTP status mapping and
// metrics accounting. It never reaches the client directly.
type Kind int

const (
	// KindClientMalformed covers missing fields, wrong extensions, invalid
	// TOML, and deletion-key mismatches.
	KindClientMalformed Kind = iota
	// KindClientOversize covers a request body over the configured limit.
	KindClientOversize
	// KindNotFound covers unknown owner/audio/file.
	KindNotFound
	// KindServerIO covers temp-write failures, rename failures, disk full.
	KindServerIO
	// KindServerInternal covers index inconsistency and recovered panics.
	KindServerInternal
	// KindUnsupportedMethod covers a verb not present in the routing table.
	KindUnsupportedMethod
)

// Error wraps an underlying cause with a Kind so the HTTP layer can map it
// to a status code without inspecting error text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a classified error.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// StatusCode maps err to the HTTP status code the spec's error taxonomy
// assigns to its Kind. Unclassified errors map to 500.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindClientMalformed:
		return http.StatusBadRequest
	case KindClientOversize:
		return http.StatusRequestEntityTooLarge
	case KindNotFound:
		return http.StatusNotFound
	case KindServerIO, KindServerInternal:
		return http.StatusInternalServerError
	case KindUnsupportedMethod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// MetricLabel returns the short label RecordError-style metrics use for
// this error's Kind.
func MetricLabel(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal"
	}
	switch e.Kind {
	case KindClientMalformed:
		return "malformed"
	case KindClientOversize:
		return "oversize"
	case KindNotFound:
		return "not_found"
	case KindServerIO:
		return "io"
	case KindServerInternal:
		return "internal"
	case KindUnsupportedMethod:
		return "unsupported_method"
	default:
		return "internal"
	}
}
