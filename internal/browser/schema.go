package browser

import (
	"fmt"
	"strings"
)

// Kind is the input kind of a queryable attribute. It drives how the shell
// prompts for a value and how the grid formats it.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// ParseKind accepts text, number or date.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindText, KindNumber, KindDate:
		return k, nil
	default:
		return "", fmt.Errorf("unknown attribute kind %q", s)
	}
}

// AttributeSpec describes one attribute of the agreed vocabulary.
type AttributeSpec struct {
	Name string `json:"name" mapstructure:"name"`
	Kind Kind   `json:"kind" mapstructure:"kind"`
}

// Schema is the ordered attribute vocabulary shown as grid columns and
// offered for query clauses.
type Schema []AttributeSpec

// DefaultSchema returns the FIREfly flight metadata attributes.
func DefaultSchema() Schema {
	return Schema{
		{"aircraft_id", KindText},
		{"aircraft_type", KindText},
		{"ch10_file", KindText},
		{"ch10_file_checksum", KindText},
		{"date_created", KindDate},
		{"date_metadata_modified", KindDate},
		{"date_modified", KindDate},
		{"landing_location", KindText},
		{"max_altitude", KindNumber},
		{"max_gforce", KindNumber},
		{"max_lat", KindNumber},
		{"max_lon", KindNumber},
		{"max_pitch", KindNumber},
		{"max_roll", KindNumber},
		{"max_speed", KindNumber},
		{"min_altitude", KindNumber},
		{"min_gforce", KindNumber},
		{"min_lat", KindNumber},
		{"min_lon", KindNumber},
		{"min_pitch", KindNumber},
		{"min_roll", KindNumber},
		{"min_speed", KindNumber},
		{"takeoff_location", KindText},
		{"time_coverage_end", KindDate},
		{"time_coverage_start", KindDate},
	}
}

// Names returns the attribute names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, a := range s {
		out[i] = a.Name
	}
	return out
}

// Lookup finds an attribute by name.
func (s Schema) Lookup(name string) (AttributeSpec, bool) {
	for _, a := range s {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeSpec{}, false
}

// Validate rejects empty and duplicate names and unknown kinds.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, a := range s {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("attribute %d: empty name", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("attribute %q listed twice", a.Name)
		}
		seen[a.Name] = true
		if _, err := ParseKind(string(a.Kind)); err != nil {
			return fmt.Errorf("attribute %q: %w", a.Name, err)
		}
	}
	return nil
}
