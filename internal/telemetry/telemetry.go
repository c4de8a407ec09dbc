// Package telemetry sets up an in-process otel TracerProvider for the
// daemon: spans around each discovery scan and each privileged-channel
// round trip, readable by anything that attaches an exporter later. No
// exporter is wired by default (see DESIGN.md): this daemon runs without a
// collector in scope, but the spans are still worth emitting since a
// future exporter is a one-line addition, not a rearchitecture, grounded
// on main.go's otel.SetTracerProvider(tp) / deferred shutdown pattern.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const tracerName = "neighbord"

// Setup installs a process-wide TracerProvider and returns a shutdown
// function the caller must defer.
func Setup() (shutdown func(context.Context) error, err error) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the daemon's single named tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span named name as a child of the span (if any) in
// ctx, returning the child context and an end function.
func StartSpan(ctx context.Context, name string) (context.Context, func(err error)) {
	ctx, span := Tracer().Start(ctx, name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(fmt.Errorf("%s: %w", name, err))
		}
		span.End()
	}
}
