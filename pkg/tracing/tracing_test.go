package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, Config{ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			t.Errorf("shutdown() error = %v", err)
		}
	}()

	_, span := otel.Tracer("test").Start(ctx, "event")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording tracer provider to produce valid span contexts")
	}
	span.End()
}
