package browser

import (
	"strings"

	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
)

// ParseClause reads a clause typed as "<attribute> <op> <value>", for example
// `max_altitude >= 1000` or `aircraft_id == ED000001`. Spaces around the
// operator are optional. The value is taken in display form and returned
// quoted for the wire; a value the user already wrapped in double quotes is
// taken as text.
func ParseClause(text string) (hsds.Clause, error) {
	pos, op := findOperator(text)
	if pos < 0 {
		return hsds.Clause{}, ferrors.Newf(ferrors.InvalidClause, "%q has no operator (want one of == <= >= < >)", text)
	}
	attr := strings.TrimSpace(text[:pos])
	if attr == "" {
		return hsds.Clause{}, ferrors.Newf(ferrors.InvalidClause, "%q has no attribute", text)
	}
	if strings.ContainsAny(attr, " \t") {
		return hsds.Clause{}, ferrors.Newf(ferrors.InvalidClause, "attribute %q contains spaces", attr)
	}
	return hsds.Clause{Attribute: attr, Op: op, Value: QuoteInput(text[pos+len(op):])}, nil
}

// QuoteInput trims a typed value and converts it to wire form.
func QuoteInput(s string) string {
	v := strings.TrimSpace(s)
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return v
	}
	return Quote(v)
}

// findOperator returns the position of the first operator in text. Two
// character operators win over their one character prefixes.
func findOperator(text string) (int, hsds.Operator) {
	for i := 0; i < len(text); i++ {
		if i+1 < len(text) {
			switch op := hsds.Operator(text[i : i+2]); op {
			case hsds.OpEq, hsds.OpLe, hsds.OpGe:
				return i, op
			}
		}
		switch op := hsds.Operator(text[i : i+1]); op {
		case hsds.OpLt, hsds.OpGt:
			return i, op
		}
	}
	return -1, ""
}
