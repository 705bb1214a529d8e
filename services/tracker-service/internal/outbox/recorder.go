package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/monume/tracker/services/tracker-service/internal/appointments"
)

const (
	EventAppointmentCreated = "tracker.appointment.created.v1"
	EventAppointmentUpdated = "tracker.appointment.updated.v1"
	EventAppointmentDeleted = "tracker.appointment.deleted.v1"
)

// Recorder translates store mutation events into outbox entries. It is
// registered as a store listener at wiring time. The mutation's context
// flows through to Append so the queued event keeps its trace.
func Recorder(repo *Repository, logger *slog.Logger) func(context.Context, appointments.Event) {
	return func(ctx context.Context, evt appointments.Event) {
		eventType := ""
		switch evt.Kind {
		case appointments.EventCreated:
			eventType = EventAppointmentCreated
		case appointments.EventUpdated:
			eventType = EventAppointmentUpdated
		case appointments.EventDeleted:
			eventType = EventAppointmentDeleted
		default:
			return
		}

		appt := evt.Appointment
		payload, err := json.Marshal(map[string]any{
			"appointment_id": appt.ID,
			"title":          appt.Title,
			"type":           string(appt.Type),
			"customer_id":    appt.CustomerID,
			"customer_name":  appt.CustomerNameSnapshot,
			"host_id":        appt.HostID,
			"host_name":      appt.HostNameSnapshot,
			"start":          appt.Start.UTC().Format(time.RFC3339),
			"end":            appt.End.UTC().Format(time.RFC3339),
		})
		if err != nil {
			logger.Error("failed to build mutation event payload", "err", err)
			return
		}

		if err := repo.Append(ctx, Event{
			AggregateType: "appointment",
			AggregateID:   appt.ID,
			EventType:     eventType,
			Payload:       payload,
		}); err != nil {
			logger.Error("failed to enqueue mutation event", "err", err, "event_type", eventType)
		}
	}
}
