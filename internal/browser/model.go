// Package browser holds the query and fetch model behind every FIREfly view.
//
// A Model owns an editable query of attribute clauses and the list of domain
// records matching it. Fetch runs in two phases: a catalog lookup that installs
// the matching domains, then a bounded-concurrency enrichment pass that merges
// each domain's attribute values into its row as they arrive. Consumers follow
// along through two signals: QueryChanged after every query mutation and
// DataChanged with -1 for a full reset or a row index for a single row.
//
// Starting a new fetch supersedes the previous one. Its in-flight requests are
// asked to abort, and any result that still arrives is discarded: no row
// notification of an old session is ever delivered after the new session's reset.
package browser

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/notify"
)

// DefaultBatchSize is the number of attribute requests kept in flight.
const DefaultBatchSize = 50

// Catalog is the remote service the model reads from. *hsds.Client and the
// Redis-backed attrcache.Catalog both satisfy it.
type Catalog interface {
	ListDomains(ctx context.Context, bucket, folder string, query []hsds.Clause) ([]hsds.Domain, error)
	FetchAttributes(ctx context.Context, bucket, root, domain string) (hsds.Attributes, error)
}

// Options configures a Model.
type Options struct {
	Endpoint  string
	Bucket    string
	Folder    string
	BatchSize int
	Logger    *slog.Logger
}

// State is the phase of the current fetch session.
type State int

const (
	StateIdle State = iota
	StateListing
	StateEnriching
)

func (s State) String() string {
	switch s {
	case StateListing:
		return "listing"
	case StateEnriching:
		return "enriching"
	default:
		return "idle"
	}
}

// Clause is one query condition. Value is in wire form (see Quote).
type Clause struct {
	ID        int           `json:"id"`
	Attribute string        `json:"attribute"`
	Op        hsds.Operator `json:"op"`
	Value     string        `json:"value"`
}

// ClauseEdit is a partial update for EditClause; nil fields are left alone.
type ClauseEdit struct {
	Attribute *string
	Op        *hsds.Operator
	Value     *string
}

// Model is safe for concurrent use. Signal handlers run on the goroutine that
// caused the change; DataChanged handlers must not call Fetch synchronously.
type Model struct {
	catalog Catalog
	opts    Options
	log     *slog.Logger

	// mu guards everything below it
	mu      sync.Mutex
	clauses []Clause
	nextID  int
	records []Record
	state   State
	gen     uint64
	cancel  context.CancelFunc
	session string

	// emitMu serializes data notifications with the state change they announce
	emitMu       sync.Mutex
	queryChanged notify.Signal[struct{}]
	dataChanged  notify.Signal[int]
}

// NewModel creates an empty model reading from catalog.
func NewModel(catalog Catalog, opts Options) *Model {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Model{catalog: catalog, opts: opts, log: log}
}

// Options returns the options the model was created with, defaults applied.
func (m *Model) Options() Options { return m.opts }

// QueryChanged fires after every successful query mutation.
func (m *Model) QueryChanged() *notify.Signal[struct{}] { return &m.queryChanged }

// DataChanged fires with -1 when the record list is replaced and with a row
// index when that row's attributes changed.
func (m *Model) DataChanged() *notify.Signal[int] { return &m.dataChanged }

// AddClause appends a clause and returns its id. Ids are never reused.
// Nothing is validated here; the server judges the query.
func (m *Model) AddClause(attribute string, op hsds.Operator, value string) int {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.clauses = append(m.clauses, Clause{ID: id, Attribute: attribute, Op: op, Value: value})
	m.mu.Unlock()

	m.queryChanged.Emit(struct{}{})
	return id
}

// EditClause updates the fields set in edit, keeping the clause's position.
func (m *Model) EditClause(id int, edit ClauseEdit) error {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return ferrors.Newf(ferrors.NotFound, "clause %d does not exist", id)
	}
	c := &m.clauses[i]
	if edit.Attribute != nil {
		c.Attribute = *edit.Attribute
	}
	if edit.Op != nil {
		c.Op = *edit.Op
	}
	if edit.Value != nil {
		c.Value = *edit.Value
	}
	m.mu.Unlock()

	m.queryChanged.Emit(struct{}{})
	return nil
}

// RemoveClause deletes a clause, keeping the order of the rest.
func (m *Model) RemoveClause(id int) error {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return ferrors.Newf(ferrors.NotFound, "clause %d does not exist", id)
	}
	m.clauses = slices.Delete(m.clauses, i, i+1)
	m.mu.Unlock()

	m.queryChanged.Emit(struct{}{})
	return nil
}

// ClearQuery removes every clause. It notifies once, and only if there was
// something to remove.
func (m *Model) ClearQuery() {
	m.mu.Lock()
	n := len(m.clauses)
	m.clauses = nil
	m.mu.Unlock()

	if n > 0 {
		m.queryChanged.Emit(struct{}{})
	}
}

// Query returns a copy of the clauses in insertion order.
func (m *Model) Query() []Clause {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.clauses)
}

// Clause returns the clause with the given id.
func (m *Model) Clause(id int) (Clause, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		return m.clauses[i], true
	}
	return Clause{}, false
}

// Data returns a snapshot of the current records.
func (m *Model) Data() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Row returns record i of the current list.
func (m *Model) Row(i int) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.records) {
		return Record{}, false
	}
	return m.records[i], true
}

// Len returns the number of records.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// State returns the phase of the current session.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID identifies the most recent fetch session, or "" before the first.
func (m *Model) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *Model) indexOf(id int) int {
	return slices.IndexFunc(m.clauses, func(c Clause) bool { return c.ID == id })
}

func wireQuery(clauses []Clause) []hsds.Clause {
	out := make([]hsds.Clause, len(clauses))
	for i, c := range clauses {
		out[i] = hsds.Clause{Attribute: c.Attribute, Op: c.Op, Value: c.Value}
	}
	return out
}
