// Package appointments owns the appointment collection: it is the only
// writer of the persisted records, enforces scheduling invariants, and
// resolves host identity into something displayable.
package appointments

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
)

const DefaultDurationMinutes = 60

// Directory is the subset of the entity repository the store needs to
// validate customer references and resolve host names.
type Directory interface {
	Customer(id string) (model.Customer, bool)
	Staff(id string) (model.Staff, bool)
	StaffMembers() []model.Staff
}

// Draft carries staged field values for a create or update. Empty
// fields fall back to the current stored value on update, never to a
// default: the edit form submits blanks for fields the user left alone.
type Draft struct {
	Title           string
	Type            string
	Date            string // 2006-01-02
	Time            string // 15:04
	Start           string // full timestamp, alternative to Date+Time
	DurationMinutes int
	CustomerID      string
	HostID          string
	HostNameHint    string // visible label of the host control, matched against the roster when the id doesn't resolve
	Notes           string
}

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes a committed mutation. Listeners run synchronously
// after the durable write succeeds, with the context of the mutating
// call so downstream recorders keep its trace.
type Event struct {
	Kind        EventKind
	Appointment model.Appointment
}

type Store struct {
	mu        sync.Mutex
	store     kvstore.Store
	dir       Directory
	appts     map[string]model.Appointment
	listeners []func(context.Context, Event)
	now       func() time.Time
}

// NewStore hydrates the appointment collection from the durable store.
func NewStore(ctx context.Context, store kvstore.Store, dir Directory) (*Store, error) {
	s := &Store{
		store: store,
		dir:   dir,
		appts: map[string]model.Appointment{},
		now:   func() time.Time { return time.Now().UTC() },
	}

	payload, err := store.Load(ctx, kvstore.Appointments)
	if err != nil {
		return nil, model.Storage("load "+kvstore.Appointments, err)
	}
	if len(payload) > 0 {
		var list []model.Appointment
		if err := json.Unmarshal(payload, &list); err != nil {
			return nil, model.Storage("decode "+kvstore.Appointments, err)
		}
		for _, a := range list {
			s.appts[a.ID] = a
		}
	}
	return s, nil
}

// Subscribe registers a mutation listener. Registration is expected at
// wiring time, before the store starts serving.
func (s *Store) Subscribe(fn func(context.Context, Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Create validates the draft, computes the end time, snapshots the
// customer and host display fields, and persists the new record.
// Validation runs before any durable write.
func (s *Store) Create(ctx context.Context, d Draft) (model.Appointment, error) {
	s.mu.Lock()

	appt, err := s.buildNew(d)
	if err != nil {
		s.mu.Unlock()
		return model.Appointment{}, err
	}
	if err := s.persistWith(ctx, appt, ""); err != nil {
		s.mu.Unlock()
		return model.Appointment{}, err
	}
	s.appts[appt.ID] = appt
	s.mu.Unlock()

	s.notify(ctx, Event{Kind: EventCreated, Appointment: appt})
	return appt, nil
}

// Update replaces the stored record with the draft applied on top of
// it: absent draft fields keep the current stored value, so a blank
// date/time from an untouched form never clobbers the schedule.
func (s *Store) Update(ctx context.Context, id string, d Draft) (model.Appointment, error) {
	s.mu.Lock()

	current, ok := s.appts[id]
	if !ok {
		s.mu.Unlock()
		return model.Appointment{}, model.NotFound("appointment", id)
	}
	appt, err := s.applyDraft(current, d)
	if err != nil {
		s.mu.Unlock()
		return model.Appointment{}, err
	}
	if err := s.persistWith(ctx, appt, ""); err != nil {
		s.mu.Unlock()
		return model.Appointment{}, err
	}
	s.appts[id] = appt
	s.mu.Unlock()

	s.notify(ctx, Event{Kind: EventUpdated, Appointment: appt})
	return appt, nil
}

// Delete removes the record. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()

	appt, ok := s.appts[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if err := s.persistWith(ctx, model.Appointment{}, id); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.appts, id)
	s.mu.Unlock()

	s.notify(ctx, Event{Kind: EventDeleted, Appointment: appt})
	return nil
}

func (s *Store) Get(id string) (model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	return a, ok
}

// List returns a snapshot of all appointments ordered by start time.
func (s *Store) List() []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(func(model.Appointment) bool { return true })
}

// ListRange returns appointments overlapping the half-open interval
// [from, to), ordered by start time.
func (s *Store) ListRange(from, to time.Time) []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(func(a model.Appointment) bool { return a.Overlaps(from, to) })
}

func (s *Store) sortedLocked(keep func(model.Appointment) bool) []model.Appointment {
	out := make([]model.Appointment, 0, len(s.appts))
	for _, a := range s.appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) buildNew(d Draft) (model.Appointment, error) {
	start, err := startFromDraft(d, time.Time{})
	if err != nil {
		return model.Appointment{}, err
	}
	if start.IsZero() {
		return model.Appointment{}, model.Invalid("start", "start date and time required")
	}

	duration := d.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if duration < 0 {
		return model.Appointment{}, model.Invalid("duration", "duration must be positive")
	}

	apptType, err := typeFromDraft(d.Type, model.TypeConsultation)
	if err != nil {
		return model.Appointment{}, err
	}

	customerID := strings.TrimSpace(d.CustomerID)
	if customerID == "" {
		return model.Appointment{}, model.Invalid("customer", "customer required")
	}
	customer, ok := s.dir.Customer(customerID)
	if !ok {
		return model.Appointment{}, model.Invalid("customer", "customer required")
	}

	appt := model.Appointment{
		ID:                    uuid.NewString(),
		Title:                 strings.TrimSpace(d.Title),
		Start:                 start,
		End:                   start.Add(time.Duration(duration) * time.Minute),
		Type:                  apptType,
		CustomerID:            customer.ID,
		CustomerNameSnapshot:  customer.DisplayName(),
		CustomerPhoneSnapshot: customer.Phone,
		Notes:                 d.Notes,
		CreatedAt:             s.now(),
	}
	if appt.Title == "" {
		appt.Title = defaultTitle(apptType, customer.DisplayName())
	}

	hint := strings.TrimSpace(d.HostNameHint)
	if hostID := strings.TrimSpace(d.HostID); hostID != "" {
		appt.HostID = hostID
		// An unresolvable host id is kept, never dropped. The control's
		// visible label still gets a chance to land a snapshot before
		// the display layer falls back to "Not assigned".
		if host, ok := s.dir.Staff(hostID); ok {
			appt.HostNameSnapshot = host.Name
		} else if host, ok := s.matchStaffByHint(hint); ok {
			appt.HostNameSnapshot = host.Name
		}
	} else if host, ok := s.matchStaffByHint(hint); ok {
		appt.HostID = host.ID
		appt.HostNameSnapshot = host.Name
	}
	return appt, nil
}

func (s *Store) applyDraft(current model.Appointment, d Draft) (model.Appointment, error) {
	appt := current

	start, err := startFromDraft(d, current.Start)
	if err != nil {
		return model.Appointment{}, err
	}
	if start.IsZero() {
		start = current.Start
	}

	duration := d.DurationMinutes
	if duration == 0 {
		duration = current.DurationMinutes()
	}
	if duration <= 0 {
		return model.Appointment{}, model.Invalid("duration", "duration must be positive")
	}
	appt.Start = start
	appt.End = start.Add(time.Duration(duration) * time.Minute)

	if t := strings.TrimSpace(d.Title); t != "" {
		appt.Title = t
	}
	if d.Type != "" {
		apptType, err := typeFromDraft(d.Type, current.Type)
		if err != nil {
			return model.Appointment{}, err
		}
		appt.Type = apptType
	}
	if d.Notes != "" {
		appt.Notes = d.Notes
	}

	if customerID := strings.TrimSpace(d.CustomerID); customerID != "" && customerID != current.CustomerID {
		customer, ok := s.dir.Customer(customerID)
		if !ok {
			return model.Appointment{}, model.Invalid("customer", "customer required")
		}
		appt.CustomerID = customer.ID
		appt.CustomerNameSnapshot = customer.DisplayName()
		appt.CustomerPhoneSnapshot = customer.Phone
	}

	hint := strings.TrimSpace(d.HostNameHint)
	if hostID := strings.TrimSpace(d.HostID); hostID != "" {
		appt.HostID = hostID
		appt.HostNameSnapshot = ""
		if host, ok := s.dir.Staff(hostID); ok {
			appt.HostNameSnapshot = host.Name
		} else if host, ok := s.matchStaffByHint(hint); ok {
			appt.HostNameSnapshot = host.Name
		}
	} else if hint != "" && hint != current.HostNameSnapshot {
		if host, ok := s.matchStaffByHint(hint); ok {
			appt.HostID = host.ID
			appt.HostNameSnapshot = host.Name
		}
	}
	return appt, nil
}

func (s *Store) persistWith(ctx context.Context, appt model.Appointment, removeID string) error {
	list := make([]model.Appointment, 0, len(s.appts)+1)
	for id, existing := range s.appts {
		if id == removeID || (appt.ID != "" && id == appt.ID) {
			continue
		}
		list = append(list, existing)
	}
	if removeID == "" {
		list = append(list, appt)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	payload, err := json.Marshal(list)
	if err != nil {
		return model.Storage("encode "+kvstore.Appointments, err)
	}
	if err := s.store.Save(ctx, kvstore.Appointments, payload); err != nil {
		return model.Storage("save "+kvstore.Appointments, err)
	}
	return nil
}

func (s *Store) notify(ctx context.Context, evt Event) {
	s.mu.Lock()
	listeners := make([]func(context.Context, Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, evt)
	}
}

func typeFromDraft(raw string, fallback model.AppointmentType) (model.AppointmentType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return fallback, nil
	}
	t := model.AppointmentType(raw)
	if !t.Valid() {
		return "", model.Invalid("type", "unknown appointment type "+raw)
	}
	return t, nil
}

func defaultTitle(t model.AppointmentType, customerName string) string {
	label := strings.ToUpper(string(t[:1])) + string(t[1:])
	if customerName == "" {
		return label
	}
	if t == model.TypeService {
		return label + " for " + customerName
	}
	return label + " with " + customerName
}

// startFromDraft combines the draft's date/time fields into a start
// timestamp. Blank fields inherit from base (the stored record on
// update); a fully blank draft yields the zero time.
func startFromDraft(d Draft, base time.Time) (time.Time, error) {
	if raw := strings.TrimSpace(d.Start); raw != "" {
		return ParseTimestamp(raw)
	}

	date := strings.TrimSpace(d.Date)
	clock := strings.TrimSpace(d.Time)
	if date == "" && clock == "" {
		return time.Time{}, nil
	}

	day := base
	if date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			return time.Time{}, model.Invalid("date", "invalid date "+date)
		}
		day = parsed
	} else if base.IsZero() {
		return time.Time{}, model.Invalid("date", "date required")
	}

	hour, min := base.Hour(), base.Minute()
	if clock != "" {
		parsed, err := time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, model.Invalid("time", "invalid time "+clock)
		}
		hour, min = parsed.Hour(), parsed.Minute()
	} else if base.IsZero() {
		return time.Time{}, model.Invalid("time", "time required")
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC), nil
}

// ParseTimestamp accepts RFC3339 and the zone-less local stamps the
// legacy front end wrote into its storage; zone-less parses as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return time.Time{}, model.Invalid("start", "invalid timestamp "+raw)
	}
	return t, nil
}
