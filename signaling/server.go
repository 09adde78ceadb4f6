package signaling

import (
	"context"
	"encoding/json"

	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/jsonrpc"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/presence"
	"github.com/imtaco/livecast/sessions"
)

// Server binds the signaling events to presence and the relay.
type Server struct {
	jsonrpc.Handler[ConnState]
	manager  sessions.Manager
	presence Presence
	relay    *Relay
	logger   *log.Logger
}

func NewServer(
	handler jsonrpc.Handler[ConnState],
	manager sessions.Manager,
	registry Presence,
	relay *Relay,
	logger *log.Logger,
) *Server {
	return &Server{
		Handler:  handler,
		manager:  manager,
		presence: registry,
		relay:    relay,
		logger:   logger,
	}
}

// Open registers the event handlers. It must run before the socket listener starts.
func (s *Server) Open(_ context.Context) error {
	s.logger.Info("Opening Signaling Server")
	s.Def(constants.MethodBroadcasterJoin, s.handleBroadcasterJoin)
	s.Def(constants.MethodViewerJoin, s.handleViewerJoin)
	s.Def(constants.MethodLeaveSession, s.handleLeave)
	s.Def(constants.MethodSignalToViewer, s.handleSignalToViewer)
	s.Def(constants.MethodSignalToBroadcaster, s.handleSignalToBroadcaster)
	return nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing Signaling Server")
	return nil
}

func (s *Server) liveSession(ctx context.Context, id string) (*sessions.Session, error) {
	sess, err := s.manager.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Live() {
		return nil, errors.Newf(errors.ErrPrecondition, "session %s is not live", id)
	}
	return sess, nil
}

func (s *Server) handleBroadcasterJoin(
	ctx context.Context,
	mctx jsonrpc.MethodContext[ConnState],
	params *json.RawMessage,
) (any, error) {
	st := mctx.Get()
	if !st.Identity.IsBroadcaster() {
		return nil, errors.New(errors.ErrForbidden, "broadcaster role required")
	}

	var data sessionParams
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	sess, err := s.liveSession(ctx, data.SessionID)
	if err != nil {
		return nil, err
	}
	if !sess.OwnedBy(st.Identity) {
		return nil, errors.New(errors.ErrForbidden, "not the session owner")
	}

	if err := s.presence.Join(st.ConnID, sess.ID, presence.Broadcaster); err != nil {
		return nil, err
	}
	s.logger.Info("broadcaster joined",
		log.ConnID(st.ConnID),
		log.SessionID(sess.ID),
		log.AccountID(st.Identity.AccountID))

	return joinResult{
		ConnectionID: st.ConnID,
		SessionID:    sess.ID,
		Role:         presence.Broadcaster.String(),
	}, nil
}

func (s *Server) handleViewerJoin(
	ctx context.Context,
	mctx jsonrpc.MethodContext[ConnState],
	params *json.RawMessage,
) (any, error) {
	st := mctx.Get()

	var data sessionParams
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	sess, err := s.liveSession(ctx, data.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.presence.Join(st.ConnID, sess.ID, presence.Viewer); err != nil {
		return nil, err
	}

	return joinResult{
		ConnectionID: st.ConnID,
		SessionID:    sess.ID,
		Role:         presence.Viewer.String(),
	}, nil
}

func (s *Server) handleLeave(
	_ context.Context,
	mctx jsonrpc.MethodContext[ConnState],
	_ *json.RawMessage,
) (any, error) {
	st := mctx.Get()
	prev := s.presence.Leave(st.ConnID)
	if !prev.Bound() {
		return leaveResult{}, nil
	}
	return leaveResult{
		SessionID: prev.SessionID,
		Role:      prev.Kind.String(),
	}, nil
}

func (s *Server) handleSignalToViewer(
	ctx context.Context,
	mctx jsonrpc.MethodContext[ConnState],
	params *json.RawMessage,
) (any, error) {
	st := mctx.Get()

	var data toViewerParams
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}
	env := Envelope{
		From:     st.ConnID,
		ViewerID: data.ViewerConnectionID,
		Signal:   data.Signal,
	}
	if !st.allow() {
		s.relay.drop(ctx, env, dropRateLimited)
		//nolint:nilnil
		return nil, nil
	}
	return nil, s.relay.Forward(ctx, env)
}

func (s *Server) handleSignalToBroadcaster(
	ctx context.Context,
	mctx jsonrpc.MethodContext[ConnState],
	params *json.RawMessage,
) (any, error) {
	st := mctx.Get()

	var data toBroadcasterParams
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}
	env := Envelope{
		From:      st.ConnID,
		SessionID: data.SessionID,
		Signal:    data.Signal,
	}
	if !st.allow() {
		s.relay.drop(ctx, env, dropRateLimited)
		//nolint:nilnil
		return nil, nil
	}
	return nil, s.relay.Forward(ctx, env)
}
