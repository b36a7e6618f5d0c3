package bridge

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"firefly/cli/internal/browser"
)

// Event is one notification received from Watch.
type Event struct {
	Type    string
	Session string
	// Row is -1 for a full reset, otherwise the index of the changed row.
	Row    int
	Rows   int
	State  string
	Record map[string]any
	// Message carries the reason for stream_closed and stream_error events.
	Message string
}

// FetchResult summarizes a completed Fetch call.
type FetchResult struct {
	Session  string
	Rows     int
	Enriched int
}

// Snapshot is the model state returned by Snapshot.
type Snapshot struct {
	Session string
	State   string
	Query   []browser.Clause
	Records []map[string]any
}

func (e Event) toStruct() (*structpb.Struct, error) {
	m := map[string]any{"type": e.Type}
	if e.Session != "" {
		m["session"] = e.Session
	}
	if e.Type == EventDataChanged {
		m["row"] = e.Row
		if e.Row < 0 {
			m["rows"] = e.Rows
			m["state"] = e.State
		} else if e.Record != nil {
			m["record"] = e.Record
		}
	}
	return structpb.NewStruct(m)
}

func eventFromStruct(s *structpb.Struct) Event {
	m := s.AsMap()
	e := Event{
		Type:    str(m["type"]),
		Session: str(m["session"]),
		Row:     num(m["row"]),
		Rows:    num(m["rows"]),
		State:   str(m["state"]),
	}
	if rec, ok := m["record"].(map[string]any); ok {
		e.Record = rec
	}
	return e
}

// recordMap flattens a record into JSON-compatible values for structpb.
func recordMap(r browser.Record) (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s Snapshot) toStruct() (*structpb.Struct, error) {
	query := make([]any, len(s.Query))
	for i, c := range s.Query {
		query[i] = map[string]any{"id": c.ID, "attribute": c.Attribute, "op": string(c.Op), "value": c.Value}
	}
	records := make([]any, len(s.Records))
	for i, r := range s.Records {
		records[i] = r
	}
	return structpb.NewStruct(map[string]any{
		"session": s.Session,
		"state":   s.State,
		"query":   query,
		"records": records,
	})
}

func snapshotFromStruct(st *structpb.Struct) (Snapshot, error) {
	b, err := st.MarshalJSON()
	if err != nil {
		return Snapshot{}, err
	}
	var raw struct {
		Session string           `json:"session"`
		State   string           `json:"state"`
		Query   []browser.Clause `json:"query"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return Snapshot{Session: raw.Session, State: raw.State, Query: raw.Query, Records: raw.Records}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) int {
	f, _ := v.(float64)
	return int(f)
}
