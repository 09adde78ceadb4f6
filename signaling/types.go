package signaling

import (
	"encoding/json"

	"golang.org/x/time/rate"

	"github.com/imtaco/livecast/auth"
	"github.com/imtaco/livecast/presence"
)

// ConnState is the per-socket value carried by every JSON-RPC call.
type ConnState struct {
	ConnID   string
	Identity auth.Identity

	limiter *rate.Limiter
}

func (c *ConnState) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Directory is the view of presence the relay routes through.
type Directory interface {
	Lookup(connID string) (presence.Binding, bool)
	Resolve(sessionID string, kind presence.Kind) []string
	Deliver(connID, method string, payload any) bool
}

// Presence is everything the socket layer needs from the registry.
type Presence interface {
	Directory
	Register(connID string, ep presence.Endpoint) error
	Unregister(connID string)
	Join(connID, sessionID string, kind presence.Kind) error
	Leave(connID string) presence.Binding
}

// Envelope is one signal in flight. Exactly one of ViewerID (broadcaster to
// viewer) or SessionID (viewer to broadcaster) names the target.
type Envelope struct {
	From      string
	SessionID string
	ViewerID  string
	Signal    json.RawMessage
}

type sessionParams struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type toViewerParams struct {
	ViewerConnectionID string          `json:"viewerConnectionId"`
	Signal             json.RawMessage `json:"signal"`
}

type toBroadcasterParams struct {
	SessionID string          `json:"sessionId"`
	Signal    json.RawMessage `json:"signal"`
}

type fromBroadcaster struct {
	Signal json.RawMessage `json:"signal"`
}

type fromViewer struct {
	ViewerConnectionID string          `json:"viewerConnectionId"`
	Signal             json.RawMessage `json:"signal"`
}

type joinResult struct {
	ConnectionID string `json:"connectionId"`
	SessionID    string `json:"sessionId"`
	Role         string `json:"role"`
}

type leaveResult struct {
	SessionID string `json:"sessionId,omitempty"`
	Role      string `json:"role,omitempty"`
}
