package bridge

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"firefly/cli/internal/browser"
	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/metrics"
)

// DefaultWatchBuffer is the number of events queued per watcher before the
// watcher is resynced.
const DefaultWatchBuffer = 256

// Server serves one model to any number of remote consumers.
type Server struct {
	model  *browser.Model
	log    *slog.Logger
	buffer int

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a bridge server for model. buffer < 1 selects
// DefaultWatchBuffer.
func NewServer(model *browser.Model, log *slog.Logger, buffer int) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if buffer < 1 {
		buffer = DefaultWatchBuffer
	}
	return &Server{model: model, log: log, buffer: buffer, done: make(chan struct{})}
}

// Register installs the service on gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
}

// Close ends every open Watch stream.
func (s *Server) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Serve runs a gRPC server for s on lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, s *Server) error {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary))
	s.Register(gs)

	go func() {
		<-ctx.Done()
		s.Close()
		gs.GracefulStop()
	}()

	s.log.Info("bridge listening", "addr", lis.Addr().String())
	if err := gs.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Debug("bridge call", "method", info.FullMethod, "code", status.Code(err).String(), "elapsed", time.Since(start))
	return resp, err
}

// Fetch optionally replaces the query, then runs a fetch to completion.
// The fetch is cancelled if the caller goes away.
func (s *Server) Fetch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := in.AsMap()
	where, _ := req["where"].([]any)
	replace, _ := req["replace"].(bool)

	if replace || len(where) > 0 {
		clauses := make([]hsds.Clause, 0, len(where))
		for _, w := range where {
			c, err := browser.ParseClause(str(w))
			if err != nil {
				return nil, grpcError(err)
			}
			clauses = append(clauses, c)
		}
		s.model.ClearQuery()
		for _, c := range clauses {
			s.model.AddClause(c.Attribute, c.Op, c.Value)
		}
	}

	if err := s.model.Fetch(ctx); err != nil {
		return nil, grpcError(err)
	}
	rows := s.model.Data()
	enriched := 0
	for _, r := range rows {
		if r.Enriched() {
			enriched++
		}
	}
	return structpb.NewStruct(map[string]any{
		"session":  s.model.SessionID(),
		"rows":     len(rows),
		"enriched": enriched,
	})
}

// Cancel cancels the model's running fetch, if any.
func (s *Server) Cancel(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	s.model.Cancel()
	return &structpb.Struct{}, nil
}

// Snapshot returns the current query and records.
func (s *Server) Snapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	data := s.model.Data()
	snap := Snapshot{
		Session: s.model.SessionID(),
		State:   s.model.State().String(),
		Query:   s.model.Query(),
		Records: make([]map[string]any, 0, len(data)),
	}
	for _, r := range data {
		m, err := recordMap(r)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		snap.Records = append(snap.Records, m)
	}
	out, err := snap.toStruct()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

type watcher struct {
	ch   chan Event
	lost atomic.Bool
}

// offer queues e without blocking; it runs inside model notifications.
func (w *watcher) offer(e Event) {
	select {
	case w.ch <- e:
	default:
		w.lost.Store(true)
	}
}

// Watch streams the model's notifications until the caller leaves or the
// server closes. A watcher that falls behind by more than the buffer gets a
// single resync event in place of what it missed.
func (s *Server) Watch(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	w := &watcher{ch: make(chan Event, s.buffer)}

	qc := s.model.QueryChanged().Connect(func(struct{}) {
		w.offer(Event{Type: EventQueryChanged})
	})
	defer qc.Disconnect()
	dc := s.model.DataChanged().Connect(func(row int) {
		w.offer(s.dataEvent(row))
	})
	defer dc.Disconnect()

	metrics.Watchers.Inc()
	defer metrics.Watchers.Dec()
	s.log.Debug("watcher connected")
	defer s.log.Debug("watcher disconnected")

	if err := send(stream, Event{Type: EventWatching, Session: s.model.SessionID()}); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case e := <-w.ch:
			if err := send(stream, e); err != nil {
				return err
			}
			if w.lost.Swap(false) {
				drain(w.ch)
				if err := send(stream, Event{Type: EventResync, Session: s.model.SessionID()}); err != nil {
					return err
				}
			}
		}
	}
}

func (s *Server) dataEvent(row int) Event {
	e := Event{Type: EventDataChanged, Row: row, Session: s.model.SessionID()}
	if row < 0 {
		e.Rows = s.model.Len()
		e.State = s.model.State().String()
		return e
	}
	if rec, ok := s.model.Row(row); ok {
		if m, err := recordMap(rec); err == nil {
			e.Record = m
		}
	}
	return e
}

func send(stream grpc.ServerStreamingServer[structpb.Struct], e Event) error {
	msg, err := e.toStruct()
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return stream.Send(msg)
}

func drain(ch chan Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// grpcError maps catalog failures onto status codes.
func grpcError(err error) error {
	code := codes.Unknown
	switch ferrors.KindOf(err) {
	case ferrors.Unauthorized:
		code = codes.Unauthenticated
	case ferrors.NetworkFailure:
		code = codes.Unavailable
	case ferrors.MalformedResponse:
		code = codes.DataLoss
	case ferrors.ServerError:
		code = codes.Internal
	case ferrors.Cancelled:
		code = codes.Canceled
	case ferrors.InvalidClause:
		code = codes.InvalidArgument
	}
	return status.Error(code, err.Error())
}
