package presence

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/livecast/internal/otel"
)

var (
	connections   metric.Int64UpDownCounter
	joins         metric.Int64Counter
	leaves        metric.Int64Counter
	joinConflicts metric.Int64Counter
	joinsFenced   metric.Int64Counter
	roomsClosed   metric.Int64Counter
	notifyErrors  metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("presence", intotel.PrefixPresence)

	f.Int64UpDownCounter(&connections, "connections",
		metric.WithDescription("Registered signaling connections"))

	f.Int64Counter(&joins, "joins",
		metric.WithDescription("Successful joins by role"))

	f.Int64Counter(&leaves, "leaves",
		metric.WithDescription("Bindings removed by leave or disconnect, by role"))

	f.Int64Counter(&joinConflicts, "joins.conflicts",
		metric.WithDescription("Broadcaster joins refused because the slot was taken"))

	f.Int64Counter(&joinsFenced, "joins.fenced",
		metric.WithDescription("Joins refused because the session was closed"))

	f.Int64Counter(&roomsClosed, "rooms.closed",
		metric.WithDescription("Rooms evicted and fenced"))

	f.Int64Counter(&notifyErrors, "notify.errors",
		metric.WithDescription("Endpoint sends that failed"))
}
