// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. Catalog and query failures carry a Kind so callers can
// tell a superseded fetch apart from a broken server or an unknown clause id.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// and plays well with the standard library's errors.Is and errors.As.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NotFound indicates a mutation referenced a clause id that does not exist.
	NotFound Kind = "not_found"
	// MalformedResponse indicates a server payload failed shape validation.
	MalformedResponse Kind = "malformed_response"
	// Cancelled indicates the operation belonged to a superseded or cancelled fetch.
	Cancelled Kind = "cancelled"
	// NetworkFailure indicates a transport-level failure (DNS, refused, timeout, reset).
	NetworkFailure Kind = "network_failure"
	// Unauthorized indicates the server rejected the configured credentials.
	Unauthorized Kind = "unauthorized"
	// ServerError indicates a non-success HTTP status other than an auth rejection.
	ServerError Kind = "server_error"
	// InvalidClause indicates a clause could not be parsed from user input.
	InvalidClause Kind = "invalid_clause"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*E); ok && e.Kind == kind {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
