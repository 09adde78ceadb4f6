package otel

// Metric name prefixes, one per component.
const (
	PrefixSessions  = "sessions"
	PrefixPresence  = "presence"
	PrefixSignaling = "signaling"
	PrefixStorage   = "storage"
)

// Attribute keys shared across components.
const (
	AttrSessionID = "session.id"
	AttrRole      = "presence.role"
	AttrReason    = "reason"
	AttrDriver    = "driver"
)
