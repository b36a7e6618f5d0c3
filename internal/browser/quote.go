package browser

import (
	"math"
	"strconv"
	"strings"
)

// Quote converts a value as typed by the user into its wire form. Numeric
// looking values are sent bare so the server compares them as numbers;
// everything else is wrapped in double quotes.
func Quote(display string) string {
	if IsNumeric(display) {
		return display
	}
	return `"` + display + `"`
}

// Unquote reverses Quote for display and editing.
func Unquote(wire string) string {
	if strings.HasPrefix(wire, `"`) {
		if len(wire) < 2 {
			return ""
		}
		return wire[1 : len(wire)-1]
	}
	return wire
}

// IsNumeric reports whether s reads as a number. A blank string counts as
// numeric (it converts to zero), as do hex, octal and binary integer literals.
func IsNumeric(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return !math.IsNaN(f)
	}
	_, err := strconv.ParseInt(t, 0, 64)
	return err == nil
}
