package storage

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/livecast/internal/otel"
)

var (
	uploadsSucceeded metric.Int64Counter
	uploadsFailed    metric.Int64Counter
	uploadBytes      metric.Int64Histogram
	deletes          metric.Int64Counter
	deletesFailed    metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("storage", intotel.PrefixStorage)

	f.Int64Counter(&uploadsSucceeded, "uploads",
		metric.WithDescription("Objects stored"))

	f.Int64Counter(&uploadsFailed, "uploads.failed",
		metric.WithDescription("Uploads that returned an error"))

	f.Int64Histogram(&uploadBytes, "upload.bytes",
		metric.WithDescription("Size of stored objects"),
		metric.WithUnit("By"))

	f.Int64Counter(&deletes, "deletes")
	f.Int64Counter(&deletesFailed, "deletes.failed")
}
