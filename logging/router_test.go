package logging_test

import (
	"context"
	"testing"
	"time"

	"popblast/replay/logging"
	"popblast/replay/logging/sinks"
)

func fixedClock() logging.Clock {
	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	return logging.ClockFunc(func() time.Time { return at })
}

func closeRouter(t *testing.T, r *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("close router: %v", err)
	}
}

func TestRouterDeliversToSinks(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(fixedClock(), logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatal(err)
	}

	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventDesyncDetected,
		Frame:    120,
		Severity: logging.SeverityError,
		Session:  "session-1",
	})
	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventSessionCreated,
		Severity: logging.SeverityInfo,
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 2 {
		t.Fatalf("delivered %d events, want 2", len(events))
	}
	if events[0].Type != logging.EventDesyncDetected || events[0].Frame != 120 {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatal("router did not stamp the event time")
	}
	if stats := router.Stats(); stats.EventsTotal != 2 || stats.DroppedTotal != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, err := logging.NewRouter(fixedClock(), cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatal(err)
	}

	router.Publish(context.Background(), logging.Event{Type: logging.EventInputRecorded, Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: logging.EventDesyncDetected, Severity: logging.SeverityError})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	if events[0].Type != logging.EventDesyncDetected {
		t.Fatalf("surviving event = %+v", events[0])
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(fixedClock(), logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatal(err)
	}
	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityError})
	closeRouter(t, router)
	if got := len(memory.Events()); got != 0 {
		t.Fatalf("untyped event delivered %d times", got)
	}
}

func TestRouterMergesConfiguredFields(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"build": "test", "shard": 3}
	router, err := logging.NewRouter(fixedClock(), cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatal(err)
	}
	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventReplayFinalized,
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"shard": 9},
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events", len(events))
	}
	if events[0].Extra["build"] != "test" {
		t.Fatalf("configured field not merged: %+v", events[0].Extra)
	}
	// Event-level fields win over router-level defaults.
	if events[0].Extra["shard"] != 9 {
		t.Fatalf("event field overwritten: %+v", events[0].Extra)
	}
}

func TestRouterSinkLookup(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(fixedClock(), logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer closeRouter(t, router)
	if router.Sink("memory") == nil {
		t.Fatal("registered sink not found")
	}
	if router.Sink("missing") != nil {
		t.Fatal("lookup invented a sink")
	}
}

func TestWithFieldsPublisher(t *testing.T) {
	var captured logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = event
	})
	wrapped := logging.WithFields(base, map[string]any{"source": "twin"})
	wrapped.Publish(context.Background(), logging.Event{Type: logging.EventTwinCompared})
	if captured.Extra["source"] != "twin" {
		t.Fatalf("field not attached: %+v", captured.Extra)
	}
}
