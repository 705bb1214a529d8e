package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/monume/tracker/services/tracker-service/internal/appointments"
	"github.com/monume/tracker/services/tracker-service/internal/availability"
	"github.com/monume/tracker/services/tracker-service/internal/calendar"
)

const slotStep = 30 * time.Minute

type CalendarHandler struct {
	projection *calendar.Projection
	store      *appointments.Store
	logger     *slog.Logger
}

func NewCalendarHandler(projection *calendar.Projection, store *appointments.Store, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{projection: projection, store: store, logger: logger}
}

type calendarEventItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	ColorClass string `json:"color_class"`
}

type statsResponse struct {
	Today    int `json:"today"`
	Upcoming int `json:"upcoming"`
	Total    int `json:"total"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Events serves GET /api/v1/calendar/events?from&to.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, err := appointments.ParseTimestamp(strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := appointments.ParseTimestamp(strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	events := h.projection.EventsInRange(from, to)
	items := make([]calendarEventItem, 0, len(events))
	for _, evt := range events {
		items = append(items, calendarEventItem{
			ID:         evt.ID,
			Title:      evt.Title,
			Start:      evt.Start.Format(time.RFC3339),
			End:        evt.End.Format(time.RFC3339),
			ColorClass: evt.ColorClass,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// Stats serves GET /api/v1/stats.
func (h *CalendarHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats := h.projection.Stats(time.Now().UTC())
	writeJSON(w, http.StatusOK, statsResponse{
		Today:    stats.Today,
		Upcoming: stats.Upcoming,
		Total:    stats.Total,
	})
}

// Slots serves GET /api/v1/slots?host_id&date&duration.
func (h *CalendarHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	hostID := strings.TrimSpace(q.Get("host_id"))

	date, err := time.Parse("2006-01-02", strings.TrimSpace(q.Get("date")))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	durationMinutes := appointments.DefaultDurationMinutes
	if raw := strings.TrimSpace(q.Get("duration")); raw != "" {
		durationMinutes, err = strconv.Atoi(raw)
		if err != nil || durationMinutes <= 0 {
			http.Error(w, "invalid duration", http.StatusBadRequest)
			return
		}
	}
	duration := time.Duration(durationMinutes) * time.Minute

	windowStart := date.UTC()
	windowEnd := windowStart.Add(24 * time.Hour)

	var busy []availability.Interval
	for _, appt := range h.store.ListRange(windowStart, windowEnd) {
		if hostID != "" && appt.HostID != hostID {
			continue
		}
		busy = append(busy, availability.Interval{Start: appt.Start, End: appt.End})
	}

	starts := availability.AvailableSlots(windowStart, windowEnd, duration, slotStep, busy, time.Now().UTC())
	items := make([]slotItem, 0, len(starts))
	for _, start := range starts {
		items = append(items, slotItem{
			StartTime: start.Format(time.RFC3339),
			EndTime:   start.Add(duration).Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}
