package bridge

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"firefly/cli/internal/browser"
	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/metrics"
)

const (
	timeout = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type stubCatalog struct {
	mu      sync.Mutex
	queries [][]hsds.Clause
	domains []hsds.Domain
	listErr error
}

func (c *stubCatalog) ListDomains(ctx context.Context, bucket, folder string, query []hsds.Clause) ([]hsds.Domain, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	c.mu.Unlock()
	return c.domains, c.listErr
}

func (c *stubCatalog) FetchAttributes(ctx context.Context, bucket, root, domain string) (hsds.Attributes, error) {
	return hsds.Attributes{"aircraft_id": {Value: "ED" + root}}, nil
}

func newModel(cat browser.Catalog) *browser.Model {
	return browser.NewModel(cat, browser.Options{Bucket: "b", Folder: "/FIREfly/h5/", BatchSize: 2})
}

func startBridge(t *testing.T, model *browser.Model) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(model, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, lis, srv) }()

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	return client
}

func twoDomains() []hsds.Domain {
	return []hsds.Domain{
		{Root: "g1", Name: "/FIREfly/h5/a.h5", Class: "domain", Owner: "ff", Created: 10, LastModified: 20},
		{Root: "g2", Name: "/FIREfly/h5/b.h5", Class: "domain", Owner: "ff", Created: 11, LastModified: 21},
	}
}

func TestFetchAndSnapshot(t *testing.T) {
	cat := &stubCatalog{domains: twoDomains()}
	client := startBridge(t, newModel(cat))
	ctx := context.Background()

	res, err := client.Fetch(ctx, []string{"aircraft_id == ED000001"}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 2, res.Enriched)
	assert.NotEmpty(t, res.Session)

	require.Len(t, cat.queries, 1)
	assert.Equal(t, `aircraft_id == "ED000001"`, hsds.Predicate(cat.queries[0]))

	snap, err := client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Session, snap.Session)
	assert.Equal(t, "idle", snap.State)
	require.Len(t, snap.Query, 1)
	assert.Equal(t, hsds.OpEq, snap.Query[0].Op)
	assert.Equal(t, `"ED000001"`, snap.Query[0].Value)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "/FIREfly/h5/a.h5", snap.Records[0]["name"])
	assert.Equal(t, map[string]any{"aircraft_id": "EDg1"}, snap.Records[0]["attributes"])

	// an empty where without replace keeps the query
	_, err = client.Fetch(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, `aircraft_id == "ED000001"`, hsds.Predicate(cat.queries[1]))
}

func TestFetchErrorsMapToCodes(t *testing.T) {
	client := startBridge(t, newModel(&stubCatalog{listErr: ferrors.New(ferrors.Unauthorized, "HTTP 401")}))

	_, err := client.Fetch(context.Background(), []string{"max_altitude 12"}, true)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Fetch(context.Background(), nil, false)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestWatchStreamsNotifications(t *testing.T) {
	model := newModel(&stubCatalog{domains: twoDomains()})
	client := startBridge(t, model)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := client.Watch(ctx)
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, EventWatching, first.Type)

	_, err = client.Fetch(context.Background(), []string{"max_altitude >= 1000"}, true)
	require.NoError(t, err)

	var got []Event
	rows := map[int]bool{}
	deadline := time.After(timeout)
	for len(rows) < 2 {
		select {
		case e := <-events:
			got = append(got, e)
			if e.Type == EventDataChanged && e.Row >= 0 {
				rows[e.Row] = true
				assert.NotNil(t, e.Record["attributes"])
			}
		case <-deadline:
			t.Fatalf("timed out, got %+v", got)
		}
	}

	require.GreaterOrEqual(t, len(got), 5)
	assert.Equal(t, EventQueryChanged, got[0].Type)
	assert.Equal(t, Event{Type: EventDataChanged, Row: -1, Rows: 0, State: "listing", Session: got[1].Session}, got[1])
	assert.Equal(t, EventDataChanged, got[2].Type)
	assert.Equal(t, -1, got[2].Row)
	assert.Equal(t, 2, got[2].Rows)
	assert.Equal(t, "enriching", got[2].State)
	assert.Equal(t, got[1].Session, got[2].Session)

	cancel()
	for e := range events {
		assert.Contains(t, []string{EventStreamError, EventStreamClosed, EventDataChanged}, e.Type)
	}
}

// blockingStream holds its first Send until gate is closed.
type blockingStream struct {
	grpc.ServerStream
	ctx     context.Context
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once

	mu   sync.Mutex
	sent []Event
}

func (s *blockingStream) Context() context.Context { return s.ctx }

func (s *blockingStream) Send(m *structpb.Struct) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.gate
	})
	s.mu.Lock()
	s.sent = append(s.sent, eventFromStruct(m))
	s.mu.Unlock()
	return nil
}

func (s *blockingStream) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, e := range s.sent {
		out[i] = e.Type
	}
	return out
}

func TestSlowWatcherIsResynced(t *testing.T) {
	model := newModel(&stubCatalog{})
	srv := NewServer(model, nil, 2)

	ctx, cancel := context.WithCancel(context.Background())
	stream := &blockingStream{ctx: ctx, entered: make(chan struct{}), gate: make(chan struct{})}
	before := testutil.ToFloat64(metrics.Watchers)

	done := make(chan error, 1)
	go func() { done <- srv.Watch(&structpb.Struct{}, stream) }()

	<-stream.entered
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Watchers))
	for i := 0; i < 5; i++ {
		model.AddClause("max_altitude", hsds.OpGe, strconv.Itoa(i))
	}
	close(stream.gate)

	require.Eventually(t, func() bool { return len(stream.types()) == 3 }, timeout, tick)
	assert.Equal(t, []string{EventWatching, EventQueryChanged, EventResync}, stream.types())

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, before, testutil.ToFloat64(metrics.Watchers))
	assert.Equal(t, 0, model.QueryChanged().Len())
	assert.Equal(t, 0, model.DataChanged().Len())
}

func TestCloseEndsWatchers(t *testing.T) {
	srv := NewServer(newModel(&stubCatalog{}), nil, 0)
	stream := &blockingStream{ctx: context.Background(), entered: make(chan struct{}), gate: make(chan struct{})}
	close(stream.gate)

	done := make(chan error, 1)
	go func() { done <- srv.Watch(&structpb.Struct{}, stream) }()
	<-stream.entered

	srv.Close()
	srv.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("watch did not return after Close")
	}
}

func TestGRPCError(t *testing.T) {
	tests := []struct {
		kind ferrors.Kind
		want codes.Code
	}{
		{ferrors.Unauthorized, codes.Unauthenticated},
		{ferrors.NetworkFailure, codes.Unavailable},
		{ferrors.MalformedResponse, codes.DataLoss},
		{ferrors.ServerError, codes.Internal},
		{ferrors.InvalidClause, codes.InvalidArgument},
		{ferrors.NotFound, codes.Unknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(grpcError(ferrors.New(tt.kind, "x"))))
		})
	}
}
