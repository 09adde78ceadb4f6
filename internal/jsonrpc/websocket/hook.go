package websocket

import (
	"net/http"

	"github.com/imtaco/livecast/internal/jsonrpc"
)

// ConnectionHooks customize the connection lifecycle.
type ConnectionHooks[T any] interface {
	// OnVerify runs before the upgrade. passed=false refuses with 401, an error
	// refuses with 500.
	OnVerify(r *http.Request) (value *T, passed bool, err error)

	// OnConnect runs once the socket is open and before the first read.
	OnConnect(mctx jsonrpc.MethodContext[T])

	// OnDisconnect runs after the socket is closed. closeCode is the websocket
	// status the peer sent, or 1006 when there was none.
	OnDisconnect(mctx jsonrpc.MethodContext[T], closeCode int)
}

type defaultHooks[T any] struct{}

func (h *defaultHooks[T]) OnVerify(*http.Request) (*T, bool, error) {
	return new(T), true, nil
}

func (h *defaultHooks[T]) OnConnect(jsonrpc.MethodContext[T]) {}

func (h *defaultHooks[T]) OnDisconnect(jsonrpc.MethodContext[T], int) {}
