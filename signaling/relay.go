package signaling

import (
	"bytes"
	"context"

	"golang.org/x/time/rate"

	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/presence"
)

const defaultMaxSignalBytes = 64 << 10

// Relay moves opaque signals between the broadcaster and the viewers of one
// session. Unroutable signals are dropped silently.
type Relay struct {
	directory Directory
	cfg       Config
	logger    *log.Logger
}

func NewRelay(directory Directory, cfg Config, logger *log.Logger) *Relay {
	if cfg.MaxSignalBytes <= 0 {
		cfg.MaxSignalBytes = defaultMaxSignalBytes
	}
	return &Relay{
		directory: directory,
		cfg:       cfg,
		logger:    logger,
	}
}

// NewLimiter returns the token bucket for one connection, or nil when rate
// limiting is off.
func (r *Relay) NewLimiter() *rate.Limiter {
	if r.cfg.RatePerSec <= 0 {
		return nil
	}
	burst := r.cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(r.cfg.RatePerSec), burst)
}

func (r *Relay) check(env Envelope) error {
	if env.SessionID == "" && env.ViewerID == "" {
		return errors.New(errors.ErrValidation, "a session id or a viewer connection id is required")
	}
	sig := bytes.TrimSpace(env.Signal)
	if len(sig) == 0 || bytes.Equal(sig, []byte("null")) {
		return errors.New(errors.ErrValidation, "signal is required")
	}
	if len(env.Signal) > r.cfg.MaxSignalBytes {
		return errors.Newf(errors.ErrValidation, "signal exceeds %d bytes", r.cfg.MaxSignalBytes)
	}
	return nil
}

// Forward delivers env to its target. Only structural problems are errors.
func (r *Relay) Forward(ctx context.Context, env Envelope) error {
	if err := r.check(env); err != nil {
		signalsRejected.Add(ctx, 1)
		return err
	}

	sender, ok := r.directory.Lookup(env.From)
	if !ok {
		r.drop(ctx, env, dropAbsent)
		return nil
	}

	if env.ViewerID != "" {
		return r.toViewer(ctx, env, sender)
	}
	return r.toBroadcaster(ctx, env, sender)
}

func (r *Relay) toViewer(ctx context.Context, env Envelope, sender presence.Binding) error {
	if sender.Kind != presence.Broadcaster {
		r.drop(ctx, env, dropUnauthorized)
		return nil
	}
	target, ok := r.directory.Lookup(env.ViewerID)
	if !ok {
		r.drop(ctx, env, dropAbsent)
		return nil
	}
	if target != (presence.Binding{Kind: presence.Viewer, SessionID: sender.SessionID}) {
		r.drop(ctx, env, dropUnauthorized)
		return nil
	}

	if !r.directory.Deliver(env.ViewerID, constants.EventSignalFromBroadcaster,
		fromBroadcaster{Signal: env.Signal}) {
		r.drop(ctx, env, dropAbsent)
		return nil
	}
	signalsForwarded.Add(ctx, 1)
	return nil
}

func (r *Relay) toBroadcaster(ctx context.Context, env Envelope, sender presence.Binding) error {
	if sender != (presence.Binding{Kind: presence.Viewer, SessionID: env.SessionID}) {
		r.drop(ctx, env, dropUnauthorized)
		return nil
	}
	ids := r.directory.Resolve(env.SessionID, presence.Broadcaster)
	if len(ids) == 0 {
		r.drop(ctx, env, dropAbsent)
		return nil
	}

	if !r.directory.Deliver(ids[0], constants.EventSignalFromViewer,
		fromViewer{ViewerConnectionID: env.From, Signal: env.Signal}) {
		r.drop(ctx, env, dropAbsent)
		return nil
	}
	signalsForwarded.Add(ctx, 1)
	return nil
}

func (r *Relay) drop(ctx context.Context, env Envelope, reason string) {
	signalsDropped.Add(ctx, 1, reasonAttr(reason))
	r.logger.Debug("signal dropped",
		log.String("from", env.From),
		log.SessionID(env.SessionID),
		log.String("viewerId", env.ViewerID),
		log.String("reason", reason))
}
