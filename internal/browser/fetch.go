package browser

import (
	"context"

	"github.com/google/uuid"

	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/metrics"
	"firefly/cli/internal/runner"
)

// Fetch replaces the record list with the domains matching the current query
// and enriches each row with its attribute values.
//
// Any fetch already in flight is cancelled first. Fetch returns when every
// enrichment request of this session has finished or been discarded. A failed
// catalog lookup is returned and leaves the list empty. A failed row is logged
// and keeps its summary fields. A superseded or cancelled session returns nil.
func (m *Model) Fetch(ctx context.Context) error {
	m.emitMu.Lock()
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		metrics.Fetches.WithLabelValues("superseded").Inc()
	}
	m.gen++
	gen := m.gen
	sctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.session = uuid.NewString()
	sid := m.session
	m.records = nil
	m.state = StateListing
	query := wireQuery(m.clauses)
	m.mu.Unlock()
	m.dataChanged.Emit(-1)
	m.emitMu.Unlock()

	defer m.finish(gen, cancel)

	log := m.log.With("session", sid)
	log.Debug("listing domains", "bucket", m.opts.Bucket, "folder", m.opts.Folder, "query", hsds.Predicate(query))

	domains, err := m.catalog.ListDomains(sctx, m.opts.Bucket, m.opts.Folder, query)
	if err != nil {
		if ferrors.Is(err, ferrors.Cancelled) || !m.current(gen) {
			log.Debug("domain listing discarded", "err", err)
			return nil
		}
		metrics.Fetches.WithLabelValues("failed").Inc()
		return err
	}

	m.emitMu.Lock()
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.emitMu.Unlock()
		log.Debug("domain listing discarded", "domains", len(domains))
		return nil
	}
	records := make([]Record, len(domains))
	for i, d := range domains {
		records[i] = Record{Domain: d}
	}
	m.records = records
	m.state = StateEnriching
	m.mu.Unlock()
	m.dataChanged.Emit(-1)
	m.emitMu.Unlock()

	log.Debug("enriching domains", "domains", len(domains), "batch", m.opts.BatchSize)

	fetchAttrs := func(ctx context.Context, d hsds.Domain) (hsds.Attributes, error) {
		return m.catalog.FetchAttributes(ctx, m.opts.Bucket, d.Root, d.Name)
	}
	onValue := func(i int, attrs hsds.Attributes) {
		m.emitMu.Lock()
		defer m.emitMu.Unlock()

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			metrics.RowsEnriched.WithLabelValues("discarded").Inc()
			return
		}
		m.records[i] = m.records[i].merged(attrs.Values())
		m.mu.Unlock()

		metrics.RowsEnriched.WithLabelValues("ok").Inc()
		m.dataChanged.Emit(i)
	}
	onError := func(i int, err error) {
		if ferrors.Is(err, ferrors.Cancelled) || !m.current(gen) {
			metrics.RowsEnriched.WithLabelValues("discarded").Inc()
			log.Debug("attribute fetch discarded", "row", i, "domain", domains[i].Name)
			return
		}
		metrics.RowsEnriched.WithLabelValues("failed").Inc()
		log.Warn("attribute fetch failed", "row", i, "domain", domains[i].Name, "err", err)
	}

	if err := runner.Run(sctx, domains, m.opts.BatchSize, fetchAttrs, onValue, onError); err != nil {
		return err
	}
	if m.current(gen) {
		metrics.Fetches.WithLabelValues("completed").Inc()
	}
	return nil
}

// Cancel invalidates the current session, if any. Rows already merged stay.
func (m *Model) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	m.gen++
	m.state = StateIdle
	metrics.Fetches.WithLabelValues("cancelled").Inc()
}

func (m *Model) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen
}

func (m *Model) finish(gen uint64, cancel context.CancelFunc) {
	cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen == gen {
		m.cancel = nil
		m.state = StateIdle
	}
}
