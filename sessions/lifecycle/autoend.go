package lifecycle

import (
	"context"
	"time"

	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/internal/retry"
	"github.com/imtaco/livecast/internal/scheduler"
	"github.com/imtaco/livecast/presence"
	"github.com/imtaco/livecast/sessions"
)

// AutoEnder ends a session once its broadcaster has been gone for the grace
// period. Install it as the presence registry hooks.
type AutoEnder struct {
	manager *Manager
	rooms   sessions.Rooms
	timers  *scheduler.KeyedTimer
	retry   retry.Retry
	cfg     DisconnectConfig
	timeout time.Duration
	logger  *log.Logger
}

var _ presence.Hooks = (*AutoEnder)(nil)

func NewAutoEnder(
	manager *Manager,
	rooms sessions.Rooms,
	timers *scheduler.KeyedTimer,
	r retry.Retry,
	cfg DisconnectConfig,
	logger *log.Logger,
) *AutoEnder {
	return &AutoEnder{
		manager: manager,
		rooms:   rooms,
		timers:  timers,
		retry:   r,
		cfg:     cfg,
		timeout: 30 * time.Second,
		logger:  logger,
	}
}

func (a *AutoEnder) OnBroadcasterJoined(sessionID string) {
	if a.timers.Cancel(sessionID) {
		autoEndCancelled.Add(context.Background(), 1)
		a.logger.Info("broadcaster returned, auto-end cancelled", log.SessionID(sessionID))
	}
}

func (a *AutoEnder) OnBroadcasterLost(sessionID string) {
	if !a.cfg.AutoEnd {
		return
	}
	autoEndScheduled.Add(context.Background(), 1)
	a.logger.Info("broadcaster lost, auto-end scheduled",
		log.SessionID(sessionID),
		log.Duration("grace", a.cfg.GracePeriod))
	a.timers.Schedule(sessionID, a.cfg.GracePeriod, func() { a.fire(sessionID) })
}

// Pending reports whether an auto-end is armed for sessionID.
func (a *AutoEnder) Pending(sessionID string) bool {
	_, ok := a.timers.Due(sessionID)
	return ok
}

func (a *AutoEnder) Stop() {
	a.timers.Stop()
}

// Retryable reports whether a system end may succeed on a later attempt. Store
// failures and lost write races qualify, policy refusals do not.
func Retryable(err error) bool {
	switch errors.KindOf(err) {
	case errors.ErrServer, errors.ErrConflict:
		return true
	}
	return false
}

func (a *AutoEnder) fire(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	logger := a.logger.With(log.SessionID(sessionID))
	// a broadcaster that rejoined while the timer was expiring keeps the session
	if a.rooms.Broadcasting(sessionID) {
		autoEndCancelled.Add(ctx, 1)
		logger.Info("broadcaster present at expiry, auto-end skipped")
		return
	}

	err := a.retry.Do(ctx, func() error {
		_, err := a.manager.endLost(ctx, sessionID)
		return err
	})
	if err == nil {
		return
	}

	switch errors.KindOf(err) {
	case errors.ErrPrecondition:
		s, gerr := a.manager.GetSession(ctx, sessionID)
		if gerr != nil || !s.Live() {
			// already ended by the owner
			return
		}
		autoEndBlocked.Add(ctx, 1)
		// not fenced: the session is still live and its owner may broadcast again
		n := a.rooms.EvictRoom(sessionID, constants.EventSessionEnded, sessions.EndedEvent{
			SessionID: sessionID,
			Reason:    constants.EndReasonBroadcasterLost,
		})
		logger.Info("session has no recording, room evicted and left live", log.Int("evicted", n))
	case errors.ErrNotFound:
		logger.Warn("auto-end for unknown session")
	default:
		autoEndFailed.Add(ctx, 1)
		logger.Error("auto-end failed", log.Error(err))
	}
}
