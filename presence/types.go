package presence

type Kind int

const (
	Unbound Kind = iota
	Broadcaster
	Viewer
)

func (k Kind) String() string {
	switch k {
	case Broadcaster:
		return "broadcaster"
	case Viewer:
		return "viewer"
	default:
		return "unbound"
	}
}

// Binding is what a connection is currently attached to. SessionID is empty
// when Kind is Unbound.
type Binding struct {
	Kind      Kind
	SessionID string
}

func (b Binding) Bound() bool {
	return b.Kind != Unbound
}

// Endpoint is the send side of a connection. Notify must not block on the network.
type Endpoint interface {
	Notify(method string, params any) error
}

// Hooks observe the broadcaster slot of a session. They run after the registry
// lock is released and in the order the transitions happened. A hook may read
// the registry but must not start another transition on the same goroutine.
type Hooks interface {
	OnBroadcasterJoined(sessionID string)
	OnBroadcasterLost(sessionID string)
}

type ViewerPayload struct {
	ViewerConnectionID string `json:"viewerConnectionId"`
}
