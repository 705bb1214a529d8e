package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	otelx "github.com/monume/tracker/libs/otel"
	"github.com/monume/tracker/services/tracker-service/internal/appointments"
	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestAppendFetchMarkPublished(t *testing.T) {
	ctx := context.Background()
	repo, err := NewRepository(ctx, kvstore.NewMemory())
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := repo.Append(ctx, Event{
			AggregateType: "appointment",
			AggregateID:   "a1",
			EventType:     EventAppointmentCreated,
			Payload:       json.RawMessage(`{}`),
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	batch := repo.FetchPending(2)
	if len(batch) != 2 {
		t.Fatalf("FetchPending(2) = %d events", len(batch))
	}
	if batch[0].EventID == "" || batch[0].EventID == batch[1].EventID {
		t.Fatalf("event ids not assigned uniquely: %q, %q", batch[0].EventID, batch[1].EventID)
	}

	if err := repo.MarkPublished(ctx, []string{batch[0].EventID, batch[1].EventID}); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	rest := repo.FetchPending(0)
	if len(rest) != 1 {
		t.Fatalf("after publish: %d pending, want 1", len(rest))
	}

	// Fetch without publish does not consume.
	if again := repo.FetchPending(0); len(again) != 1 {
		t.Fatalf("fetch consumed events: %d pending", len(again))
	}
}

func TestPendingSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()

	first, err := NewRepository(ctx, mem)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if err := first.Append(ctx, Event{AggregateID: "a1", EventType: EventAppointmentDeleted}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	second, err := NewRepository(ctx, mem)
	if err != nil {
		t.Fatalf("NewRepository (rehydrate): %v", err)
	}
	pending := second.FetchPending(0)
	if len(pending) != 1 {
		t.Fatalf("got %d pending after restart, want 1", len(pending))
	}
	if pending[0].EventType != EventAppointmentDeleted {
		t.Fatalf("event type = %q", pending[0].EventType)
	}
}

func TestRecorderTranslatesMutations(t *testing.T) {
	ctx := context.Background()
	repo, err := NewRepository(ctx, kvstore.NewMemory())
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	record := Recorder(repo, slog.Default())
	appt := model.Appointment{
		ID:                   "a1",
		Title:                "Consultation",
		Type:                 model.TypeConsultation,
		CustomerID:           "c1",
		CustomerNameSnapshot: "Ana Lopez",
		Start:                time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		End:                  time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
	}

	record(ctx, appointments.Event{Kind: appointments.EventCreated, Appointment: appt})
	record(ctx, appointments.Event{Kind: appointments.EventUpdated, Appointment: appt})
	record(ctx, appointments.Event{Kind: appointments.EventDeleted, Appointment: appt})
	record(ctx, appointments.Event{Kind: appointments.EventKind("unknown"), Appointment: appt})

	pending := repo.FetchPending(0)
	if len(pending) != 3 {
		t.Fatalf("got %d events, want 3", len(pending))
	}
	wantTypes := []string{EventAppointmentCreated, EventAppointmentUpdated, EventAppointmentDeleted}
	for i, want := range wantTypes {
		if pending[i].EventType != want {
			t.Fatalf("event %d type = %q, want %q", i, pending[i].EventType, want)
		}
		if pending[i].AggregateID != "a1" {
			t.Fatalf("event %d aggregate id = %q", i, pending[i].AggregateID)
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(pending[0].Payload, &payload); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if payload["customer_name"] != "Ana Lopez" {
		t.Fatalf("payload customer_name = %v", payload["customer_name"])
	}
	if payload["start"] != "2026-03-02T10:00:00Z" {
		t.Fatalf("payload start = %v", payload["start"])
	}
}

func TestRecorderKeepsTraceOfMutation(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator()) })

	repo, err := NewRepository(context.Background(), kvstore.NewMemory())
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := otelx.ContextWithTraceContext(context.Background(), traceparent, "")

	record := Recorder(repo, slog.Default())
	record(ctx, appointments.Event{
		Kind:        appointments.EventCreated,
		Appointment: model.Appointment{ID: "a1"},
	})

	pending := repo.FetchPending(0)
	if len(pending) != 1 {
		t.Fatalf("got %d pending, want 1", len(pending))
	}
	if pending[0].Traceparent == "" {
		t.Fatal("queued event lost the mutation's traceparent")
	}
	if !strings.Contains(pending[0].Traceparent, "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Fatalf("traceparent = %q, want the originating trace id", pending[0].Traceparent)
	}
}
