// Package calendar is the read-only projection consumed by the calendar
// widget. It never mutates appointments and never caches: every render
// re-queries the store, so a mutation can't leave a stale view behind.
package calendar

import (
	"time"

	"github.com/monume/tracker/services/tracker-service/internal/model"
)

// Source is the store surface the projection reads from.
type Source interface {
	List() []model.Appointment
	ListRange(from, to time.Time) []model.Appointment
}

// Event is one renderable calendar entry.
type Event struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ColorClass string    `json:"color_class"`
}

type Projection struct {
	src Source
}

func New(src Source) *Projection {
	return &Projection{src: src}
}

// EventsInRange converts appointments overlapping [from, to) into
// renderable events, ordered by start time.
func (p *Projection) EventsInRange(from, to time.Time) []Event {
	appts := p.src.ListRange(from, to)
	events := make([]Event, 0, len(appts))
	for _, a := range appts {
		events = append(events, Event{
			ID:         a.ID,
			Title:      a.Title,
			Start:      a.Start,
			End:        a.End,
			ColorClass: ColorClass(a.Type),
		})
	}
	return events
}

// ColorClass maps an appointment type onto the CSS class the calendar
// widget styles events with.
func ColorClass(t model.AppointmentType) string {
	switch t {
	case model.TypeConsultation, model.TypeService, model.TypeFollowUp:
		return "event-" + string(t)
	default:
		return "event-other"
	}
}

// Stats are the dashboard tile counters.
type Stats struct {
	Today    int `json:"today"`
	Upcoming int `json:"upcoming"`
	Total    int `json:"total"`
}

func (p *Projection) Stats(now time.Time) Stats {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var stats Stats
	for _, a := range p.src.List() {
		stats.Total++
		if !a.Start.Before(dayStart) && a.Start.Before(dayEnd) {
			stats.Today++
		}
		if a.Start.After(now) {
			stats.Upcoming++
		}
	}
	return stats
}
