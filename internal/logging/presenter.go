// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	ferrors "firefly/cli/internal/errors"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// Hint suggests a next step for an error kind, or "" when there is none.
func Hint(err error) string {
	switch ferrors.KindOf(err) {
	case ferrors.Unauthorized:
		return "Run 'firefly login' to store HSDS credentials."
	case ferrors.MalformedResponse:
		return "The endpoint answered, but not like an HSDS server. Check --endpoint."
	case ferrors.NetworkFailure:
		return "Check your network connection and the configured endpoint."
	case ferrors.NotFound:
		return "Run 'list' to see the clause ids."
	case ferrors.InvalidClause:
		return `Clauses look like: max_altitude >= 1000 or aircraft_id == ED000001`
	}
	return ""
}
