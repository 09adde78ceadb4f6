package constants

// Signaling events sent by clients.
const (
	MethodBroadcasterJoin     = "broadcaster-join"
	MethodViewerJoin          = "viewer-join"
	MethodLeaveSession        = "leave-session"
	MethodSignalToViewer      = "signal-to-viewer"
	MethodSignalToBroadcaster = "signal-to-broadcaster"
)

// Signaling events pushed by the server.
const (
	EventViewerJoined            = "viewer-joined"
	EventViewerLeft              = "viewer-left"
	EventSignalFromBroadcaster   = "signal-from-broadcaster"
	EventSignalFromViewer        = "signal-from-viewer"
	EventSessionStarted          = "session-started"
	EventSessionEnded            = "session-ended"
	EventBroadcasterDisconnected = "broadcaster-disconnected"
)

// Reasons attached to session-ended.
const (
	EndReasonBroadcasterLost = "broadcaster-lost"
)

// Key prefixes under the configured store namespace.
const (
	StoreKeySessions = "sessions"
	StoreKeyIndex    = "index"
)
