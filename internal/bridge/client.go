package bridge

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client talks to a bridge server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for addr. The bridge listens on loopback by default,
// so the connection is plaintext unless opts supply credentials.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error { return c.conn.Close() }

// Fetch asks the server to run a fetch and waits for it to finish. With
// replace set, where replaces the server's query (an empty where clears it);
// otherwise a non-empty where replaces it and an empty one keeps it.
func (c *Client) Fetch(ctx context.Context, where []string, replace bool) (FetchResult, error) {
	list := make([]any, len(where))
	for i, w := range where {
		list[i] = w
	}
	in, err := structpb.NewStruct(map[string]any{"where": list, "replace": replace})
	if err != nil {
		return FetchResult{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("Fetch"), in, out); err != nil {
		return FetchResult{}, err
	}
	m := out.AsMap()
	return FetchResult{Session: str(m["session"]), Rows: num(m["rows"]), Enriched: num(m["enriched"])}, nil
}

// Cancel cancels the server's running fetch.
func (c *Client) Cancel(ctx context.Context) error {
	return c.conn.Invoke(ctx, fullMethod("Cancel"), &structpb.Struct{}, new(structpb.Struct))
}

// Snapshot returns the server's query and records.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("Snapshot"), &structpb.Struct{}, out); err != nil {
		return Snapshot{}, err
	}
	return snapshotFromStruct(out)
}

// Watch opens the event stream. The returned channel is closed after a final
// stream_closed or stream_error event.
func (c *Client) Watch(ctx context.Context) (<-chan Event, error) {
	cs, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], fullMethod("Watch"))
	if err != nil {
		return nil, err
	}
	stream := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: cs}
	if err := stream.Send(&structpb.Struct{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	events := make(chan Event, 64)
	go receiveLoop(stream, events)
	return events, nil
}

func receiveLoop(stream grpc.ServerStreamingClient[structpb.Struct], events chan<- Event) {
	defer close(events)
	for {
		msg, err := stream.Recv()
		if err != nil {
			// Differentiate normal close vs error; EOF is the server ending the stream
			if errors.Is(err, io.EOF) {
				events <- Event{Type: EventStreamClosed, Message: "stream closed"}
			} else if st, ok := status.FromError(err); ok {
				events <- Event{Type: EventStreamError, Message: st.Code().String() + ": " + st.Message()}
			} else {
				events <- Event{Type: EventStreamError, Message: err.Error()}
			}
			return
		}
		events <- eventFromStruct(msg)
	}
}
