package signaling

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/imtaco/livecast/auth"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/httputil"
	"github.com/imtaco/livecast/internal/jsonrpc"
	wsrpc "github.com/imtaco/livecast/internal/jsonrpc/websocket"
	"github.com/imtaco/livecast/internal/log"
)

func NewWSHook(
	registry Presence,
	relay *Relay,
	verifier auth.Verifier,
	logger *log.Logger,
) wsrpc.ConnectionHooks[ConnState] {
	return &wsHookImpl{
		registry: registry,
		relay:    relay,
		verifier: verifier,
		logger:   logger,
	}
}

type wsHookImpl struct {
	registry Presence
	relay    *Relay
	verifier auth.Verifier
	logger   *log.Logger
}

// peerEndpoint adapts a socket to presence. Notify only enqueues on the write pump.
type peerEndpoint struct {
	peer jsonrpc.Notifier
}

func (e peerEndpoint) Notify(method string, params any) error {
	return e.peer.Notify(context.Background(), method, params)
}

func (h *wsHookImpl) OnVerify(r *http.Request) (*ConnState, bool, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = httputil.BearerToken(r)
	}

	state := &ConnState{limiter: h.relay.NewLimiter()}
	if token == "" {
		// anonymous viewer
		return state, true, nil
	}

	id, err := h.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			authFailures.Add(r.Context(), 1)
			return nil, false, nil
		}
		return nil, false, err
	}
	state.Identity = id
	return state, true, nil
}

func (h *wsHookImpl) OnConnect(mctx jsonrpc.MethodContext[ConnState]) {
	next := *mctx.Get()
	connID := uuid.New().String()

	if err := h.registry.Register(connID, peerEndpoint{peer: mctx.Peer()}); err != nil {
		h.logger.Error("failed to register connection",
			log.ConnID(connID),
			log.Error(err))
		_ = mctx.Peer().Close()
		return
	}
	next.ConnID = connID
	mctx.Set(&next)

	wsConnectionsActive.Add(context.Background(), 1)
	wsConnectionsTotal.Add(context.Background(), 1)
	h.logger.Debug("client connected",
		log.ConnID(next.ConnID),
		log.AccountID(next.Identity.AccountID),
		log.Bool("anonymous", next.Identity.Anonymous()))
}

func (h *wsHookImpl) OnDisconnect(mctx jsonrpc.MethodContext[ConnState], closeCode int) {
	st := mctx.Get()
	if st.ConnID == "" {
		return
	}
	h.registry.Unregister(st.ConnID)

	wsConnectionsActive.Add(context.Background(), -1)
	wsDisconnectsTotal.Add(context.Background(), 1)
	h.logger.Debug("client disconnected",
		log.ConnID(st.ConnID),
		log.Int("errorCode", closeCode))
}
