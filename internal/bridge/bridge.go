// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge exposes a browser.Model over gRPC so remote consumers can
// trigger fetches and follow the model's change notifications.
//
// The service is firefly.bridge.Browser. Messages are google.protobuf.Struct
// values, so there is no generated code: the service descriptor below is
// written by hand and both ends use the standard proto codec.
//
//	rpc Fetch(Struct) returns (Struct)            // {"where": ["max_altitude >= 1000"], "replace": true}
//	rpc Cancel(Struct) returns (Struct)
//	rpc Snapshot(Struct) returns (Struct)         // query, records, state, session
//	rpc Watch(Struct) returns (stream Struct)     // watching, query_changed, data_changed, resync
package bridge

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "firefly.bridge.Browser"

// Event types carried by Watch.
const (
	// EventWatching is the first event of every stream; notifications that
	// follow it are not missed.
	EventWatching     = "watching"
	EventQueryChanged = "query_changed"
	EventDataChanged  = "data_changed"
	// EventResync tells the watcher that events were dropped and it should
	// reload state with Snapshot.
	EventResync = "resync"

	// Synthesized by the client when the stream ends.
	EventStreamClosed = "stream_closed"
	EventStreamError  = "stream_error"
)

// BrowserServer is the server side of firefly.bridge.Browser.
type BrowserServer interface {
	Fetch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Cancel(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Snapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Watch(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BrowserServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Fetch", Handler: unary("Fetch", BrowserServer.Fetch)},
		{MethodName: "Cancel", Handler: unary("Cancel", BrowserServer.Cancel)},
		{MethodName: "Snapshot", Handler: unary("Snapshot", BrowserServer.Snapshot)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "firefly/bridge.proto",
}

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

func unary(name string, call func(BrowserServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BrowserServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BrowserServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BrowserServer).Watch(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}
