// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
	"testing"

	ferrors "firefly/cli/internal/errors"
)

func TestClassify(t *testing.T) {
	dnsErr := &url.Error{Op: "Get", URL: "https://nohost.invalid/domains", Err: &net.DNSError{Err: "no such host", Name: "nohost.invalid"}}
	refused := &url.Error{Op: "Get", URL: "http://127.0.0.1:1/about", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}

	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"unauthorized", ferrors.New(ferrors.Unauthorized, "about: 401"), CategoryUnauthorized},
		{"malformed", ferrors.New(ferrors.MalformedResponse, "list_domains: domains is required"), CategoryMalformed},
		{"5xx", ferrors.New(ferrors.ServerError, "list_domains: 503 (busy)"), CategoryServer},
		{"4xx", ferrors.New(ferrors.ServerError, "list_domains: 404 (not found)"), CategoryGeneric},
		{"timeout", ferrors.Wrap(ferrors.NetworkFailure, "list_domains", context.DeadlineExceeded), CategoryTimeout},
		{"dns", ferrors.Wrap(ferrors.NetworkFailure, "list_domains", dnsErr), CategoryDNS},
		{"refused", ferrors.Wrap(ferrors.NetworkFailure, "about", refused), CategoryRefused},
		{"tls", ferrors.Wrap(ferrors.NetworkFailure, "about", errors.New("x509: certificate signed by unknown authority")), CategoryTLS},
		{"other", errors.New("boom"), CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatNetworkErrorWraps(t *testing.T) {
	if FormatNetworkError(nil, "listing domains", "hsds") != nil {
		t.Error("nil error should stay nil")
	}
	cause := ferrors.New(ferrors.Unauthorized, "about: 403")
	err := FormatNetworkError(cause, "checking credentials", "hsds.example.org")
	if !errors.Is(err, cause) {
		t.Errorf("wrapped error lost its cause: %v", err)
	}
}

func TestExtractHostFromURL(t *testing.T) {
	if got := ExtractHostFromURL("https://hsdshdflab.hdfgroup.org/"); got != "hsdshdflab.hdfgroup.org" {
		t.Errorf("ExtractHostFromURL() = %s", got)
	}
	if got := ExtractHostFromURL("::"); got != "server" {
		t.Errorf("ExtractHostFromURL() = %s", got)
	}
}
