package jsonrpc

import (
	"context"
	"encoding/json"
	"io"
)

type Handler[T any] interface {
	// Def registers a method. Connections created by the same handler share its methods.
	Def(method string, handler MethodHandler[T])
	NewConn(stream ObjectStream, v *T) Conn[T]
}

type Notifier interface {
	Notify(ctx context.Context, method string, params any) error
}

type Conn[T any] interface {
	Notifier
	// Open starts the stream and the read loop. Requests are dispatched one at a
	// time in arrival order.
	Open(ctx context.Context) error
	Context() MethodContext[T]
	io.Closer
}

// MethodHandler handles a request or a notification. The result is only sent back
// when the client supplied an id.
type MethodHandler[T any] func(ctx context.Context, mctx MethodContext[T], params *json.RawMessage) (any, error)

type ObjectStream interface {
	Open(ctx context.Context) error
	Read(ctx context.Context, v any) error
	Write(ctx context.Context, obj any) error
	io.Closer
}
