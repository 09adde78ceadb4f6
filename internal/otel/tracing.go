package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/imtaco/livecast/internal/errors"
)

// AttrErrorKind carries the domain kind of a failed span.
const AttrErrorKind = "error.kind"

func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func StartSpan(ctx context.Context, tracer trace.Tracer, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// EndSpan ends span, marking it failed with the error kind when err is set.
// Client errors are recorded but keep an unset status.
func EndSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	kind := errors.KindOf(err)
	span.SetAttributes(attribute.String(AttrErrorKind, string(kind)))
	span.RecordError(err)
	if kind == errors.ErrServer || kind == errors.ErrUpload {
		span.SetStatus(codes.Error, errors.Message(err))
	}
}
