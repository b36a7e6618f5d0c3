package render

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"firefly/cli/internal/browser"
)

// FormatValue renders a cell. Summary timestamps are epoch seconds and shown
// in UTC; missing values render as an empty cell.
func FormatValue(column string, v any, ok bool) string {
	if !ok || v == nil {
		return ""
	}
	switch column {
	case browser.ColumnCreated, browser.ColumnLastModified:
		if f, isFloat := v.(float64); isFloat {
			return epoch(f)
		}
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "?"
		}
		return string(b)
	}
}

func epoch(sec float64) string {
	if sec <= 0 {
		return ""
	}
	whole := int64(sec)
	nanos := int64((sec - float64(whole)) * float64(time.Second))
	return time.Unix(whole, nanos).UTC().Format("2006-01-02 15:04:05")
}

// Rows converts records into table rows for the given columns, header first.
func Rows(records []browser.Record, columns []string) [][]string {
	out := make([][]string, 0, len(records)+1)
	out = append(out, append([]string(nil), columns...))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			v, ok := rec.Value(c)
			row[i] = FormatValue(c, v, ok)
		}
		out = append(out, row)
	}
	return out
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []browser.Record) error {
	if records == nil {
		records = []browser.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func itoa(n int) string { return strconv.Itoa(n) }
