// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: stderrors.New("boom"), want: ""},
		{name: "direct", err: New(NotFound, "clause 3"), want: NotFound},
		{name: "wrapped by fmt", err: fmt.Errorf("fetch: %w", New(MalformedResponse, "domains")), want: MalformedResponse},
		{name: "outermost wins", err: Wrap(Cancelled, "list", New(NetworkFailure, "dial")), want: Cancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsWalksTheChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(Cancelled, "list domains", New(NetworkFailure, "reset")))

	if !Is(err, Cancelled) {
		t.Errorf("expected Cancelled in chain")
	}
	if !Is(err, NetworkFailure) {
		t.Errorf("expected NetworkFailure in chain")
	}
	if Is(err, NotFound) {
		t.Errorf("did not expect NotFound in chain")
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	err := Wrap(Cancelled, "list domains", context.Canceled)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected errors.Is to reach context.Canceled")
	}
	want := "cancelled: list domains: context canceled"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
