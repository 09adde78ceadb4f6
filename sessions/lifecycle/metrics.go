package lifecycle

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/livecast/internal/otel"
)

var (
	sessionsStarted  metric.Int64Counter
	sessionsEnded    metric.Int64Counter
	autoEndScheduled metric.Int64Counter
	autoEndCancelled metric.Int64Counter
	autoEndBlocked   metric.Int64Counter
	autoEndFailed    metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("sessions", intotel.PrefixSessions)

	f.Int64Counter(&sessionsStarted, "started",
		metric.WithDescription("Sessions that went live"))

	f.Int64Counter(&sessionsEnded, "ended",
		metric.WithDescription("Sessions ended, by reason"))

	f.Int64Counter(&autoEndScheduled, "autoend.scheduled",
		metric.WithDescription("Grace timers armed after a broadcaster was lost"))

	f.Int64Counter(&autoEndCancelled, "autoend.cancelled",
		metric.WithDescription("Grace timers cancelled by a broadcaster re-join"))

	f.Int64Counter(&autoEndBlocked, "autoend.blocked",
		metric.WithDescription("Auto-ends refused by the recording policy, room closed only"))

	f.Int64Counter(&autoEndFailed, "autoend.failed",
		metric.WithDescription("Auto-ends that gave up"))

	f.Int64Counter(&cacheHits, "cache.hits")
	f.Int64Counter(&cacheMisses, "cache.misses")
}
