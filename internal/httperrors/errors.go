// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly explanations for failed HSDS requests.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/logging"
)

// Category is the user-facing class of a failed catalog request.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryTimeout
	CategoryDNS
	CategoryRefused
	CategoryTLS
	CategoryServer
	CategoryUnauthorized
	CategoryMalformed
)

// FormatNetworkError converts technical HSDS/network errors into user-friendly messages.
// It detects common error types (timeout, DNS, connection refused, TLS, rejected
// credentials, server errors, non-HSDS answers) and displays troubleshooting information.
// host names the server in the messages; see ExtractHostFromURL.
func FormatNetworkError(err error, context, host string) error {
	if err == nil {
		return nil
	}

	// Display user-friendly error message with pterm
	displayErrorMessage(err, context, host)

	// Return wrapped error for logging/debugging
	return fmt.Errorf("catalog request failed: %w", err)
}

// Classify picks the category used to explain err.
func Classify(err error) Category {
	switch ferrors.KindOf(err) {
	case ferrors.Unauthorized:
		return CategoryUnauthorized
	case ferrors.MalformedResponse:
		return CategoryMalformed
	case ferrors.ServerError:
		if isServerError(err.Error()) {
			return CategoryServer
		}
		return CategoryGeneric
	}
	switch {
	case isTimeoutError(err):
		return CategoryTimeout
	case isDNSError(err):
		return CategoryDNS
	case isConnectionRefusedError(err):
		return CategoryRefused
	case isSSLError(err):
		return CategoryTLS
	case isServerError(err.Error()):
		return CategoryServer
	}
	return CategoryGeneric
}

// displayErrorMessage shows a formatted error message to the user based on error type.
func displayErrorMessage(err error, context, host string) {
	errStr := logging.Mask(err.Error())

	switch Classify(err) {
	case CategoryTimeout:
		showTimeoutError(context)
	case CategoryDNS:
		showDNSError(context, host)
	case CategoryRefused:
		showConnectionRefusedError(context)
	case CategoryTLS:
		showSSLError(context)
	case CategoryServer:
		showServerError(context, host)
	case CategoryUnauthorized:
		showUnauthorizedError(context, host)
	case CategoryMalformed:
		showMalformedError(context, host, errStr)
	default:
		showGenericError(context, host, errStr)
	}
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	// Check for timeout in error message
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	// Check for net.Error with Timeout()
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.ECONNREFUSED)
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "ssl") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks if the error indicates a server-side problem (5xx errors).
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	return strings.Contains(lower, "500") ||
		strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") ||
		strings.Contains(lower, "504") ||
		strings.Contains(lower, "internal server error") ||
		strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "gateway timeout")
}

// showTimeoutError displays a user-friendly timeout error message.
func showTimeoutError(context string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", context)
	pterm.Println()
	pterm.Println("The server took too long to respond. This could mean:")
	pterm.Println("  • Slow internet connection")
	pterm.Println("  • Server is under heavy load")
	pterm.Println("  • Network firewall is blocking the connection")
	pterm.Println()
	pterm.Println("Please try again in a few moments.")
	pterm.Println()
}

// showDNSError displays a user-friendly DNS error message.
func showDNSError(context, host string) {
	pterm.Printf("🌐 Cannot resolve server address while %s\n", context)
	pterm.Println()
	pterm.Printf("Unable to look up %s. Please check:\n", host)
	pterm.Println("  • Your internet connection is working")
	pterm.Println("  • DNS settings are correct")
	pterm.Println("  • No DNS-level blocking (corporate firewall, parental controls)")
	pterm.Println()
}

// showConnectionRefusedError displays a user-friendly connection refused error message.
func showConnectionRefusedError(context string) {
	pterm.Printf("🚫 Connection refused while %s\n", context)
	pterm.Println()
	pterm.Println("The server is not accepting connections. This could mean:")
	pterm.Println("  • The service is temporarily down")
	pterm.Println("  • Firewall is blocking the connection")
	pterm.Println("  • Wrong server address or port (see 'firefly config show')")
	pterm.Println()
	pterm.Println("Please try again later.")
	pterm.Println()
}

// showSSLError displays a user-friendly SSL/TLS error message.
func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("Cannot establish a secure HTTPS connection. This could mean:")
	pterm.Println("  • SSL/TLS certificate issue")
	pterm.Println("  • Network proxy interfering with HTTPS")
	pterm.Println("  • System clock is incorrect")
	pterm.Println()
	pterm.Println("Try:")
	pterm.Println("  • Check your system date and time")
	pterm.Println("  • Verify network proxy settings")
	pterm.Println()
}

// showServerError displays a user-friendly server error message.
func showServerError(context, host string) {
	pterm.Printf("⚠️  Server error while %s\n", context)
	pterm.Println()
	pterm.Printf("The HSDS service at %s encountered an internal error.\n", host)
	pterm.Println()
	pterm.Println("This is usually not a problem with your setup.")
	pterm.Println("  • The service may be restarting or overloaded")
	pterm.Println("  • Please try again in a few minutes")
	pterm.Println()
}

// showUnauthorizedError displays a message for rejected credentials.
func showUnauthorizedError(context, host string) {
	pterm.Printf("🔑 Access denied while %s\n", context)
	pterm.Println()
	pterm.Printf("%s rejected the request. This could mean:\n", host)
	pterm.Println("  • No credentials are stored for this endpoint")
	pterm.Println("  • The stored password was changed")
	pterm.Println("  • Your account cannot read this bucket")
	pterm.Println()
	pterm.Println("Run 'firefly login' to store new credentials.")
	pterm.Println()
}

// showMalformedError displays a message for answers that are not HSDS responses.
func showMalformedError(context, host, errDetails string) {
	pterm.Printf("❓ Unexpected response while %s\n", context)
	pterm.Println()
	pterm.Printf("%s answered, but the payload does not look like an HSDS catalog response.\n", host)
	pterm.Println("  • Check that the endpoint points at an HSDS service")
	pterm.Println("  • A proxy or captive portal may be answering instead")
	pterm.Println()
	pterm.Debug.Printf("Technical details: %s\n", shorten(errDetails))
	pterm.Println()
}

// showGenericError displays a generic error message for unrecognized errors.
func showGenericError(context, host, errDetails string) {
	pterm.Printf("❌ Cannot reach the HSDS service while %s\n", context)
	pterm.Println()
	pterm.Println("Please check:")
	pterm.Println("  • Your internet connection")
	pterm.Printf("  • Whether %s is accessible from your network\n", host)
	pterm.Println("  • Firewall settings that might block HTTPS requests")
	pterm.Println()

	// Show abbreviated error details for debugging
	if errDetails != "" {
		pterm.Debug.Printf("Technical details: %s\n", shorten(errDetails))
		pterm.Println()
	}
}

func shorten(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
