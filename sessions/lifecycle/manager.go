package lifecycle

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/imtaco/livecast/auth"
	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
	intotel "github.com/imtaco/livecast/internal/otel"
	"github.com/imtaco/livecast/internal/validation"
	"github.com/imtaco/livecast/sessions"
)

const reasonOwner = "owner"

var transitions = map[sessions.Status][]sessions.Status{
	sessions.StatusCreated: {sessions.StatusLive},
	sessions.StatusLive:    {sessions.StatusEnded},
}

func transition(s *sessions.Session, to sessions.Status) error {
	if s.Status == to {
		return errors.Newf(errors.ErrPrecondition, "session %s is already %s", s.ID, to)
	}
	if !slices.Contains(transitions[s.Status], to) {
		return errors.Newf(errors.ErrPrecondition, "session %s cannot go from %s to %s", s.ID, s.Status, to)
	}
	s.Status = to
	return nil
}

// Manager owns every session state change. It is the only writer to the store,
// which keeps its read cache coherent.
type Manager struct {
	store             sessions.Store
	rooms             sessions.Rooms
	cache             *lru.Cache[string, *sessions.Session]
	clock             clockwork.Clock
	recordingRequired bool
	logger            *log.Logger
}

var _ sessions.Manager = (*Manager)(nil)

func NewManager(
	store sessions.Store,
	rooms sessions.Rooms,
	cfg RecordingConfig,
	cacheSize int,
	clock clockwork.Clock,
	logger *log.Logger,
) (*Manager, error) {
	// a non-positive size runs without a cache
	var cache *lru.Cache[string, *sessions.Session]
	if cacheSize > 0 {
		var err error
		cache, err = lru.New[string, *sessions.Session](cacheSize)
		if err != nil {
			return nil, errors.Wrap(errors.ErrServer, err, "failed to create session cache")
		}
	}
	return &Manager{
		store:             store,
		rooms:             rooms,
		cache:             cache,
		clock:             clock,
		recordingRequired: cfg.Required,
		logger:            logger,
	}, nil
}

func (m *Manager) StartSession(ctx context.Context, owner auth.Identity, p sessions.StartParams) (*sessions.Session, error) {
	if !owner.IsBroadcaster() {
		return nil, errors.New(errors.ErrForbidden, "only broadcasters can start sessions")
	}

	title := strings.TrimSpace(p.Title)
	description := strings.TrimSpace(p.Description)
	switch {
	case title == "":
		return nil, errors.New(errors.ErrValidation, "title is required")
	case utf8.RuneCountInString(title) > validation.MaxTitleLength:
		return nil, errors.Newf(errors.ErrValidation, "title must be at most %d characters", validation.MaxTitleLength)
	case utf8.RuneCountInString(description) > validation.MaxDescriptionLength:
		return nil, errors.Newf(errors.ErrValidation, "description must be at most %d characters", validation.MaxDescriptionLength)
	}

	s := &sessions.Session{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Owner:       sessions.OwnerOf(owner),
		Status:      sessions.StatusCreated,
		PlaybackURL: strings.TrimSpace(p.PlaybackURL),
	}
	if err := transition(s, sessions.StatusLive); err != nil {
		return nil, err
	}
	s.StartedAt = m.clock.Now().UTC()

	if err := m.store.Create(ctx, s); err != nil {
		return nil, classify(err, "failed to create session")
	}
	m.remember(s)
	sessionsStarted.Add(ctx, 1)

	n := m.rooms.AnnounceIdle(constants.EventSessionStarted, sessions.StartedEvent{
		SessionID: s.ID,
		Title:     s.Title,
	})
	m.logger.Info("session started",
		log.SessionID(s.ID),
		log.String("owner", s.Owner.AccountID),
		log.Int("announced", n))
	return s.Clone(), nil
}

func (m *Manager) AttachRecording(ctx context.Context, id, url string, requester auth.Identity) (*sessions.Session, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New(errors.ErrValidation, "recording url is required")
	}

	return m.update(ctx, id, func(s *sessions.Session) (bool, error) {
		if !s.OwnedBy(requester) {
			return false, errors.Newf(errors.ErrForbidden, "only the owner can attach a recording to session %s", id)
		}
		return attach(s, url)
	})
}

func (m *Manager) EndSession(ctx context.Context, id string, requester auth.Identity) (*sessions.Session, error) {
	s, err := m.update(ctx, id, func(s *sessions.Session) (bool, error) {
		if !s.OwnedBy(requester) {
			return false, errors.Newf(errors.ErrForbidden, "only the owner can end session %s", id)
		}
		return true, m.end(s)
	})
	if err != nil {
		return nil, err
	}
	m.closeRoom(ctx, s, "")
	return s, nil
}

func (m *Manager) EndSessionWithRecording(ctx context.Context, id, url string, requester auth.Identity) (*sessions.Session, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New(errors.ErrValidation, "recording url is required")
	}

	s, err := m.update(ctx, id, func(s *sessions.Session) (bool, error) {
		if !s.OwnedBy(requester) {
			return false, errors.Newf(errors.ErrForbidden, "only the owner can end session %s", id)
		}
		if !s.Live() {
			return false, transition(s, sessions.StatusEnded)
		}
		if _, err := attach(s, url); err != nil {
			return false, err
		}
		return true, m.end(s)
	})
	if err != nil {
		return nil, err
	}
	m.closeRoom(ctx, s, "")
	return s, nil
}

// endLost ends a session on behalf of the system after its broadcaster went
// away. Ownership is not checked.
func (m *Manager) endLost(ctx context.Context, id string) (*sessions.Session, error) {
	s, err := m.update(ctx, id, func(s *sessions.Session) (bool, error) {
		return true, m.end(s)
	})
	if err != nil {
		return nil, err
	}
	m.closeRoom(ctx, s, constants.EndReasonBroadcasterLost)
	return s, nil
}

func (m *Manager) GetSession(ctx context.Context, id string) (*sessions.Session, error) {
	if m.cache != nil {
		if s, ok := m.cache.Get(id); ok {
			cacheHits.Add(ctx, 1)
			return s.Clone(), nil
		}
		cacheMisses.Add(ctx, 1)
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, classify(err, "failed to get session")
	}
	m.remember(s)
	return s.Clone(), nil
}

func (m *Manager) remember(s *sessions.Session) {
	if m.cache != nil {
		m.cache.Add(s.ID, s)
	}
}

func (m *Manager) forget(id string) {
	if m.cache != nil {
		m.cache.Remove(id)
	}
}

func (m *Manager) ListLive(ctx context.Context) ([]*sessions.Session, error) {
	return m.list(ctx, sessions.StatusLive)
}

func (m *Manager) ListEnded(ctx context.Context) ([]*sessions.Session, error) {
	return m.list(ctx, sessions.StatusEnded)
}

func (m *Manager) list(ctx context.Context, status sessions.Status) ([]*sessions.Session, error) {
	list, err := m.store.List(ctx, status)
	if err != nil {
		return nil, classify(err, "failed to list sessions")
	}
	if list == nil {
		list = []*sessions.Session{}
	}
	return list, nil
}

// end applies the recording policy and the live to ended transition to s.
func (m *Manager) end(s *sessions.Session) error {
	if s.Status == sessions.StatusEnded {
		return transition(s, sessions.StatusEnded)
	}
	if m.recordingRequired && !s.HasRecording() {
		return errors.Newf(errors.ErrPrecondition, "session %s has no recording", s.ID)
	}
	if err := transition(s, sessions.StatusEnded); err != nil {
		return err
	}
	now := m.clock.Now().UTC()
	s.EndedAt = &now
	return nil
}

func attach(s *sessions.Session, url string) (bool, error) {
	if s.RecordingURL == url {
		return false, nil
	}
	if s.HasRecording() {
		return false, errors.Newf(errors.ErrConflict, "session %s already has a recording", s.ID)
	}
	// ended sessions are history
	if !s.Live() {
		return false, errors.Newf(errors.ErrPrecondition, "session %s is already %s", s.ID, s.Status)
	}
	s.RecordingURL = url
	return true, nil
}

func (m *Manager) update(ctx context.Context, id string, mutate sessions.Mutation) (*sessions.Session, error) {
	s, err := m.store.Update(ctx, id, mutate)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			m.forget(id)
		}
		return nil, classify(err, "failed to update session")
	}
	m.remember(s)
	return s.Clone(), nil
}

func (m *Manager) closeRoom(ctx context.Context, s *sessions.Session, reason string) {
	if reason == "" {
		sessionsEnded.Add(ctx, 1, endReason(reasonOwner))
	} else {
		sessionsEnded.Add(ctx, 1, endReason(reason))
	}
	n := m.rooms.CloseRoom(s.ID, constants.EventSessionEnded, sessions.EndedEvent{
		SessionID: s.ID,
		Reason:    reason,
	})
	m.logger.Info("session ended",
		log.SessionID(s.ID),
		log.String("reason", reason),
		log.Int("evicted", n))
}

func endReason(reason string) metric.AddOption {
	return metric.WithAttributes(attribute.String(intotel.AttrReason, reason))
}

// classify keeps domain errors as they are and reports anything else as a
// server error.
func classify(err error, message string) error {
	if _, ok := errors.As[*errors.Error](err); ok {
		return err
	}
	return errors.Wrap(errors.ErrServer, err, message)
}
