package capture

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/livecast/internal/otel"
)

var (
	captures        metric.Int64Counter
	capturesFailed  metric.Int64Counter
	orphansDeleted  metric.Int64Counter
	orphansLeftOver metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("sessions", intotel.PrefixSessions)

	f.Int64Counter(&captures, "captures",
		metric.WithDescription("Recordings uploaded and attached"))

	f.Int64Counter(&capturesFailed, "captures.failed",
		metric.WithDescription("Capture attempts that returned an error, by kind"))

	f.Int64Counter(&orphansDeleted, "captures.orphans.deleted",
		metric.WithDescription("Uploaded objects removed after the attach failed"))

	f.Int64Counter(&orphansLeftOver, "captures.orphans.leftover",
		metric.WithDescription("Uploaded objects that could not be removed after the attach failed"))
}
