package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		display string
		wire    string
	}{
		{"42", "42"},
		{"-3.5", "-3.5"},
		{"1e3", "1e3"},
		{"0x1F", "0x1F"},
		{"", ""},
		{"  ", "  "},
		{"ED000001", `"ED000001"`},
		{"NaN", `"NaN"`},
		{"2019-06-01", `"2019-06-01"`},
		{"KEDW", `"KEDW"`},
	}
	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			assert.Equal(t, tt.wire, Quote(tt.display))
			assert.Equal(t, tt.display, Unquote(Quote(tt.display)))
		})
	}
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "42", Unquote("42"))
	assert.Equal(t, "ED000001", Unquote(`"ED000001"`))
	assert.Equal(t, "", Unquote(`""`))
	assert.Equal(t, "", Unquote(`"`))
	assert.Equal(t, `a"b`, Unquote(`"a"b"`))
}
