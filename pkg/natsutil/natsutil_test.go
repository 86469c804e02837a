package natsutil

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	c := (*headerCarrier)(msg)

	if got := c.Get("traceparent"); got != "" {
		t.Errorf("empty headers should read empty, got %q", got)
	}
	if keys := c.Keys(); keys != nil {
		t.Errorf("empty headers should have no keys, got %v", keys)
	}

	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Errorf("got %q", got)
	}
	if keys := c.Keys(); len(keys) != 1 {
		t.Errorf("expected one key, got %v", keys)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg := &nats.Msg{Subject: "docs"}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if msg.Header.Get("traceparent") == "" {
		t.Fatal("inject should write a traceparent header")
	}

	got := trace.SpanContextFromContext(Extract(msg))
	if got.TraceID() != sc.TraceID() {
		t.Errorf("trace id %s did not survive the headers, want %s", got.TraceID(), sc.TraceID())
	}
}
