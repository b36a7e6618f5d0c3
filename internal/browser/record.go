package browser

import (
	"maps"

	"firefly/cli/internal/hsds"
)

// Summary column names. Root is deliberately absent: it identifies the
// group on the server but is not shown.
const (
	ColumnName         = "name"
	ColumnClass        = "class"
	ColumnOwner        = "owner"
	ColumnCreated      = "created"
	ColumnLastModified = "lastModified"
)

// Record is a catalog entry merged with whatever attribute values have
// arrived so far. A nil Attributes map means enrichment has not produced
// anything for the row.
type Record struct {
	hsds.Domain
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Value returns the cell for column, looking at summary fields first.
func (r Record) Value(column string) (any, bool) {
	switch column {
	case ColumnName:
		return r.Name, true
	case ColumnClass:
		return r.Class, true
	case ColumnOwner:
		return r.Owner, true
	case ColumnCreated:
		return r.Created, true
	case ColumnLastModified:
		return r.LastModified, true
	case "root":
		return r.Root, true
	}
	v, ok := r.Attributes[column]
	return v, ok
}

// Enriched reports whether any attribute values were merged into the record.
func (r Record) Enriched() bool { return len(r.Attributes) > 0 }

// merged returns a copy of r with values overlaid on its attributes.
// The receiver's map is left untouched so earlier snapshots stay stable.
func (r Record) merged(values map[string]any) Record {
	next := make(map[string]any, len(r.Attributes)+len(values))
	maps.Copy(next, r.Attributes)
	maps.Copy(next, values)
	r.Attributes = next
	return r
}

// Columns lists the grid columns for schema: the summary columns followed by
// every schema attribute.
func Columns(schema Schema) []string {
	cols := []string{ColumnName, ColumnClass, ColumnOwner, ColumnCreated, ColumnLastModified}
	return append(cols, schema.Names()...)
}
