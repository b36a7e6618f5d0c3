package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firefly/cli/internal/hsds"
)

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()
	require.NoError(t, s.Validate())
	assert.Len(t, s, 25)

	a, ok := s.Lookup("max_altitude")
	require.True(t, ok)
	assert.Equal(t, KindNumber, a.Kind)

	a, ok = s.Lookup("time_coverage_start")
	require.True(t, ok)
	assert.Equal(t, KindDate, a.Kind)

	_, ok = s.Lookup("root")
	assert.False(t, ok)
}

func TestSchemaValidate(t *testing.T) {
	assert.Error(t, Schema{{Name: "", Kind: KindText}}.Validate())
	assert.Error(t, Schema{{Name: "a", Kind: KindText}, {Name: "a", Kind: KindNumber}}.Validate())
	assert.Error(t, Schema{{Name: "a", Kind: "blob"}}.Validate())
	assert.NoError(t, Schema{{Name: "a", Kind: KindDate}}.Validate())
}

func TestColumnsNeverIncludeRoot(t *testing.T) {
	cols := Columns(Schema{{Name: "aircraft_id", Kind: KindText}})
	assert.Equal(t, []string{"name", "class", "owner", "created", "lastModified", "aircraft_id"}, cols)
	assert.NotContains(t, Columns(DefaultSchema()), "root")
}

func TestRecordValue(t *testing.T) {
	r := Record{
		Domain:     hsds.Domain{Root: "g1", Name: "/a.h5", Owner: "ff", Created: 1},
		Attributes: map[string]any{"max_speed": 310.0},
	}
	v, ok := r.Value("name")
	assert.True(t, ok)
	assert.Equal(t, "/a.h5", v)

	v, ok = r.Value("max_speed")
	assert.True(t, ok)
	assert.Equal(t, 310.0, v)

	_, ok = r.Value("min_speed")
	assert.False(t, ok)

	merged := r.merged(map[string]any{"min_speed": 80.0, "max_speed": 320.0})
	assert.Equal(t, 310.0, r.Attributes["max_speed"], "original record is not mutated")
	assert.Equal(t, map[string]any{"max_speed": 320.0, "min_speed": 80.0}, merged.Attributes)
}
