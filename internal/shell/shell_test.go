package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firefly/cli/internal/browser"
	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
)

type stubCatalog struct {
	mu      sync.Mutex
	queries [][]hsds.Clause
	domains []hsds.Domain
	listErr error
	block   chan struct{}
}

func (c *stubCatalog) ListDomains(ctx context.Context, bucket, folder string, query []hsds.Clause) ([]hsds.Domain, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.domains, nil
}

func (c *stubCatalog) FetchAttributes(ctx context.Context, bucket, root, domain string) (hsds.Attributes, error) {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return nil, ferrors.Wrap(ferrors.Cancelled, "attributes", ctx.Err())
		}
	}
	return hsds.Attributes{"max_altitude": {Value: 1200.0}}, nil
}

// syncBuffer is written from fetch goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (w *syncBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *syncBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

func newShell(cat browser.Catalog) (*Shell, *browser.Model, *syncBuffer) {
	m := browser.NewModel(cat, browser.Options{Bucket: "b", Folder: "/FIREfly/h5/", BatchSize: 2})
	out := &syncBuffer{}
	return New(context.Background(), m, browser.DefaultSchema(), out, nil), m, out
}

func TestAddEditRemoveList(t *testing.T) {
	sh, m, out := newShell(&stubCatalog{})

	require.NoError(t, sh.Exec("add aircraft_id == ED000001"))
	require.NoError(t, sh.Exec("add max_altitude >= 1000"))
	q := m.Query()
	require.Len(t, q, 2)
	assert.Equal(t, `"ED000001"`, q[0].Value)
	assert.Equal(t, "1000", q[1].Value)

	require.NoError(t, sh.Exec("edit 1 value 42"))
	require.NoError(t, sh.Exec("edit 1 op <"))
	c, ok := m.Clause(1)
	require.True(t, ok)
	assert.Equal(t, "42", c.Value)
	assert.Equal(t, hsds.OpLt, c.Op)
	assert.Equal(t, "max_altitude", c.Attribute)

	require.NoError(t, sh.Exec("edit 0 aircraft_type == F-16"))
	c, _ = m.Clause(0)
	assert.Equal(t, hsds.Clause{Attribute: "aircraft_type", Op: hsds.OpEq, Value: `"F-16"`},
		hsds.Clause{Attribute: c.Attribute, Op: c.Op, Value: c.Value})

	require.NoError(t, sh.Exec("list"))
	assert.Contains(t, out.String(), "[0] aircraft_type == F-16")
	assert.Contains(t, out.String(), `query: aircraft_type == "F-16" AND max_altitude < 42`)

	require.NoError(t, sh.Exec("rm 0"))
	assert.Len(t, m.Query(), 1)

	require.NoError(t, sh.Exec("clear"))
	assert.Empty(t, m.Query())
}

func TestErrorsCarryKinds(t *testing.T) {
	sh, _, _ := newShell(&stubCatalog{})

	err := sh.Exec("rm 7")
	assert.Equal(t, ferrors.NotFound, ferrors.KindOf(err))

	err = sh.Exec("add max_altitude 1000")
	assert.Equal(t, ferrors.InvalidClause, ferrors.KindOf(err))

	require.NoError(t, sh.Exec("add max_altitude >= 1"))
	err = sh.Exec("edit 0 op ~")
	assert.Equal(t, ferrors.InvalidClause, ferrors.KindOf(err))

	err = sh.Exec("frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")

	assert.True(t, errors.Is(sh.Exec("quit"), ErrQuit))
	assert.True(t, errors.Is(sh.Exec("exit"), ErrQuit))
	assert.NoError(t, sh.Exec("   "))
}

func TestFetchRunsInBackground(t *testing.T) {
	cat := &stubCatalog{domains: []hsds.Domain{
		{Root: "g1", Name: "/FIREfly/h5/a.h5"},
		{Root: "g2", Name: "/FIREfly/h5/b.h5"},
	}}
	sh, m, out := newShell(cat)

	require.NoError(t, sh.Exec("add max_altitude >= 1000"))
	require.NoError(t, sh.Exec("fetch"))
	sh.Wait()

	assert.Contains(t, out.String(), "fetched 2 domains, 2 enriched")
	assert.Equal(t, 2, m.Len())
	require.Len(t, cat.queries, 1)
	assert.Equal(t, "max_altitude >= 1000", hsds.Predicate(cat.queries[0]))

	require.NoError(t, sh.Exec("show 1"))
	assert.Contains(t, out.String(), "/FIREfly/h5/a.h5")
	assert.NotContains(t, out.String(), "/FIREfly/h5/b.h5 ")

	require.NoError(t, sh.Exec("status"))
	assert.Contains(t, out.String(), "state: idle  domains: 2  enriched: 2")
}

func TestFetchFailureIsReported(t *testing.T) {
	sh, _, out := newShell(&stubCatalog{listErr: ferrors.New(ferrors.Unauthorized, "HTTP 401")})

	require.NoError(t, sh.Exec("fetch"))
	sh.Wait()

	assert.Contains(t, out.String(), "fetch failed")
	assert.Contains(t, out.String(), "firefly login")
}

func TestCancelStopsReporting(t *testing.T) {
	cat := &stubCatalog{domains: []hsds.Domain{{Root: "g1"}}, block: make(chan struct{})}
	sh, m, out := newShell(cat)

	require.NoError(t, sh.Exec("cancel"))
	assert.Contains(t, out.String(), "nothing to cancel")

	require.NoError(t, sh.Exec("fetch"))
	require.Eventually(t, func() bool { return m.State() == browser.StateEnriching }, timeout, tick)

	require.NoError(t, sh.Exec("cancel"))
	sh.Wait()
	close(cat.block)

	assert.Contains(t, out.String(), "fetch cancelled")
	assert.NotContains(t, out.String(), "fetched")
	assert.Equal(t, browser.StateIdle, m.State())
}

func TestComplete(t *testing.T) {
	sh, _, _ := newShell(&stubCatalog{})

	assert.Equal(t, []string{"cancel", "clear"}, sh.Complete("c"))
	assert.Equal(t, []string{"add max_altitude"}, sh.Complete("add max_alt"))
	assert.Nil(t, sh.Complete("add max_altitude >"))
	assert.Equal(t, []string{"edit 3 op"}, sh.Complete("edit 3 o"))
	assert.Equal(t, []string{"edit 3 attr min_gforce"}, sh.Complete("edit 3 attr min_g"))
}

func TestHelpListsEveryCommand(t *testing.T) {
	sh, _, out := newShell(&stubCatalog{})
	require.NoError(t, sh.Exec("help"))
	for _, name := range Commands() {
		assert.True(t, strings.Contains(out.String(), name), name)
	}
	assert.Contains(t, out.String(), "== <= >= < >")
}

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)
