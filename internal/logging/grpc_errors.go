// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// GRPCErrorType represents the category of a bridge stream error
type GRPCErrorType int

const (
	GRPCErrorUnknown GRPCErrorType = iota
	GRPCErrorNetwork
	GRPCErrorAuth
	GRPCErrorTimeout
	GRPCErrorInternal
	GRPCErrorUnavailable
)

// ParseGRPCError categorizes a gRPC error message
func ParseGRPCError(errMsg string) GRPCErrorType {
	lower := strings.ToLower(errMsg)

	// Check for specific error patterns
	if strings.Contains(lower, "rst_stream") || strings.Contains(lower, "connection reset") {
		return GRPCErrorNetwork
	}
	if strings.Contains(lower, "internal_error") || strings.Contains(lower, "code = internal") {
		return GRPCErrorInternal
	}
	if strings.Contains(lower, "unavailable") || strings.Contains(lower, "connection refused") {
		return GRPCErrorUnavailable
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return GRPCErrorTimeout
	}
	if strings.Contains(lower, "unauthenticated") || strings.Contains(lower, "unauthorized") {
		return GRPCErrorAuth
	}

	return GRPCErrorUnknown
}

// FormatStreamError formats a bridge stream error in a user-friendly way
func FormatStreamError(addr, errMsg string) string {
	errType := ParseGRPCError(errMsg)

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Connection Lost"))
	builder.WriteString("\n\n")

	switch errType {
	case GRPCErrorNetwork:
		builder.WriteString("The connection to the browser bridge at " + addr + " was interrupted.\n")
		builder.WriteString("This usually happens when the serving process exited or the network path dropped.\n")

	case GRPCErrorInternal:
		builder.WriteString("The browser bridge reported an internal error.\n")

	case GRPCErrorUnavailable:
		builder.WriteString("No browser bridge is listening at " + addr + ".\n")
		builder.WriteString("Start one with 'firefly serve' or pass --addr.\n")

	case GRPCErrorTimeout:
		builder.WriteString("The browser bridge at " + addr + " did not answer in time.\n")

	case GRPCErrorAuth:
		builder.WriteString("The browser bridge rejected the request.\n")

	default:
		builder.WriteString("The event stream from " + addr + " ended unexpectedly.\n")
	}

	builder.WriteString("\n")
	builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please try running 'firefly watch' again"))
	builder.WriteString("\n")

	// Technical details (optional, for debugging)
	if strings.TrimSpace(errMsg) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(errMsg)))
	}

	return builder.String()
}

// PresentStreamError displays a formatted stream error
func PresentStreamError(addr, errMsg string) {
	fmt.Println()
	fmt.Println(FormatStreamError(addr, errMsg))
	fmt.Println()
}
