//go:generate mockgen -source=types.go -destination=mocks/mocks.go -package=mocks

package sessions

import (
	"context"
	"io"
	"time"

	"github.com/imtaco/livecast/auth"
)

type Status string

const (
	// StatusCreated only exists in memory before the first write.
	StatusCreated Status = "created"
	StatusLive    Status = "live"
	StatusEnded   Status = "ended"
)

type Owner struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

func OwnerOf(id auth.Identity) Owner {
	return Owner{
		AccountID:   id.AccountID,
		DisplayName: id.DisplayName,
		Email:       id.Email,
	}
}

type Session struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Owner        Owner      `json:"owner"`
	Status       Status     `json:"status"`
	StartedAt    time.Time  `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	RecordingURL string     `json:"recordingUrl,omitempty"`
	PlaybackURL  string     `json:"playbackUrl,omitempty"`

	// Revision is the store's concurrency token. Zero means never persisted.
	Revision int64 `json:"-"`
}

func (s *Session) Clone() *Session {
	cp := *s
	if s.EndedAt != nil {
		t := *s.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

func (s *Session) OwnedBy(id auth.Identity) bool {
	return !id.Anonymous() && s.Owner.AccountID == id.AccountID
}

func (s *Session) Live() bool {
	return s.Status == StatusLive
}

func (s *Session) HasRecording() bool {
	return s.RecordingURL != ""
}

// Mutation edits a fresh copy of the stored session. Returning false skips the
// write and hands back the current document.
type Mutation func(s *Session) (changed bool, err error)

// Store persists sessions. Records are never deleted.
type Store interface {
	// Create fails with ErrConflict when the id already exists.
	Create(ctx context.Context, s *Session) error
	// Get fails with ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies mutate as one conditional write, re-reading and re-running it
	// when a concurrent writer wins.
	Update(ctx context.Context, id string, mutate Mutation) (*Session, error)
	// List returns every session in status, ordered by the store's index
	// (startedAt for live, endedAt for ended), newest first.
	List(ctx context.Context, status Status) ([]*Session, error)
}

type StartParams struct {
	Title       string
	Description string
	PlaybackURL string
}

type Manager interface {
	StartSession(ctx context.Context, owner auth.Identity, p StartParams) (*Session, error)
	AttachRecording(ctx context.Context, id, url string, requester auth.Identity) (*Session, error)
	EndSession(ctx context.Context, id string, requester auth.Identity) (*Session, error)
	EndSessionWithRecording(ctx context.Context, id, url string, requester auth.Identity) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListLive(ctx context.Context) ([]*Session, error)
	ListEnded(ctx context.Context) ([]*Session, error)
}

// StartedEvent is pushed to idle connections when a session goes live.
type StartedEvent struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

// EndedEvent closes a room. Reason is empty for an owner initiated end.
type EndedEvent struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason,omitempty"`
}

// Rooms is the part of presence the lifecycle drives.
type Rooms interface {
	AnnounceIdle(method string, payload any) int
	CloseRoom(sessionID, method string, payload any) int
	EvictRoom(sessionID, method string, payload any) int
	Broadcasting(sessionID string) bool
}

type Blob struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

type Capturer interface {
	Capture(ctx context.Context, id string, requester auth.Identity, blob Blob) (*Session, error)
	CaptureAndEnd(ctx context.Context, id string, requester auth.Identity, blob Blob) (*Session, error)
}

// Uploader stores recording bytes and returns a URL viewers can fetch.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
