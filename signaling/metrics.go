package signaling

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/livecast/internal/otel"
)

const (
	dropAbsent       = "absent"
	dropUnauthorized = "unauthorized"
	dropRateLimited  = "rate_limited"
)

var (
	wsConnectionsActive metric.Int64UpDownCounter
	wsConnectionsTotal  metric.Int64Counter
	wsDisconnectsTotal  metric.Int64Counter
	authFailures        metric.Int64Counter

	signalsForwarded metric.Int64Counter
	signalsDropped   metric.Int64Counter
	signalsRejected  metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("signaling", intotel.PrefixSignaling)

	f.Int64UpDownCounter(&wsConnectionsActive, "connections.active",
		metric.WithDescription("Number of open signaling sockets"))

	f.Int64Counter(&wsConnectionsTotal, "connections.total",
		metric.WithDescription("Total signaling sockets accepted"))

	f.Int64Counter(&wsDisconnectsTotal, "disconnects.total",
		metric.WithDescription("Total signaling sockets closed"))

	f.Int64Counter(&authFailures, "auth.failures",
		metric.WithDescription("Sockets refused for an invalid token"))

	f.Int64Counter(&signalsForwarded, "signals.forwarded",
		metric.WithDescription("Signals delivered to their target"))

	f.Int64Counter(&signalsDropped, "signals.dropped",
		metric.WithDescription("Signals dropped without an error, by reason"))

	f.Int64Counter(&signalsRejected, "signals.rejected",
		metric.WithDescription("Signals that failed structural checks"))
}

func reasonAttr(reason string) metric.AddOption {
	return metric.WithAttributes(attribute.String(intotel.AttrReason, reason))
}
