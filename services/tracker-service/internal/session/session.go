// Package session stages a single appointment's edits and commits or
// discards them as a unit. It replaces the legacy front end's habit of
// stashing the in-flight appointment id and host pick on globals: the
// staged values live on an explicit session object, and at most one
// session is open at a time.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/monume/tracker/services/tracker-service/internal/appointments"
	"github.com/monume/tracker/services/tracker-service/internal/model"
)

// ErrClosed is returned by Commit on a session that was already
// committed, discarded, or displaced by a newer session.
var ErrClosed = errors.New("session already closed")

// UIHost is the modal layer. The session only signals open/close and
// never reads presentation state back from it.
type UIHost interface {
	ShowDraftEditor(appointmentID string) // empty id means a new appointment
	CloseDraftEditor()
}

type Manager struct {
	mu      sync.Mutex
	store   *appointments.Store
	ui      UIHost
	current *Session
}

func NewManager(store *appointments.Store, ui UIHost) *Manager {
	return &Manager{store: store, ui: ui}
}

// Session is one in-flight draft. It is either editing an existing
// appointment (sourceID set) or creating a new one.
type Session struct {
	m           *Manager
	sourceID    string
	draft       appointments.Draft
	hostDisplay string
	closed      bool
}

// Open starts an editing session for an existing appointment. Any
// session already open is discarded first: one draft at a time.
func (m *Manager) Open(id string) (*Session, error) {
	appt, ok := m.store.Get(id)
	if !ok {
		return nil, model.NotFound("appointment", id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCurrentLocked()

	sess := &Session{
		m:           m,
		sourceID:    id,
		hostDisplay: m.store.ResolveHostDisplayName(appt, ""),
		draft: appointments.Draft{
			Title:           appt.Title,
			Type:            string(appt.Type),
			Start:           appt.Start.Format("2006-01-02T15:04:05"),
			DurationMinutes: appt.DurationMinutes(),
			CustomerID:      appt.CustomerID,
			HostID:          appt.HostID,
			HostNameHint:    appt.HostNameSnapshot,
			Notes:           appt.Notes,
		},
	}
	m.current = sess
	if m.ui != nil {
		m.ui.ShowDraftEditor(id)
	}
	return sess, nil
}

// OpenNew starts a session for a new appointment.
func (m *Manager) OpenNew() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCurrentLocked()

	sess := &Session{
		m:     m,
		draft: appointments.Draft{DurationMinutes: appointments.DefaultDurationMinutes},
	}
	m.current = sess
	if m.ui != nil {
		m.ui.ShowDraftEditor("")
	}
	return sess
}

// Current returns the open session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) closeCurrentLocked() {
	if m.current == nil {
		return
	}
	m.current.closed = true
	m.current = nil
	if m.ui != nil {
		m.ui.CloseDraftEditor()
	}
}

func (s *Session) Editing() bool    { return s.sourceID != "" }
func (s *Session) SourceID() string { return s.sourceID }

// HostDisplayName is the pre-resolved name used to pre-select the host
// control when the editor opens.
func (s *Session) HostDisplayName() string { return s.hostDisplay }

// Draft returns the currently staged values.
func (s *Session) Draft() appointments.Draft {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.draft
}

// Stage replaces the staged values. It has no effect on the store until
// Commit.
func (s *Session) Stage(d appointments.Draft) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed {
		return
	}
	s.draft = d
}

// Commit applies the staged draft to the store, then closes the session
// whether or not the store call succeeded; a failed commit surfaces its
// error but never leaves the editor stuck open. Committing an editing
// session whose source was deleted underneath it fails with a not-found
// error and does not create a duplicate.
func (s *Session) Commit(ctx context.Context) (model.Appointment, error) {
	s.m.mu.Lock()
	if s.closed {
		s.m.mu.Unlock()
		return model.Appointment{}, ErrClosed
	}
	draft := s.draft
	sourceID := s.sourceID
	s.closed = true
	if s.m.current == s {
		s.m.current = nil
	}
	if s.m.ui != nil {
		s.m.ui.CloseDraftEditor()
	}
	s.m.mu.Unlock()

	if sourceID != "" {
		return s.m.store.Update(ctx, sourceID, draft)
	}
	return s.m.store.Create(ctx, draft)
}

// Discard closes the session without touching the store.
func (s *Session) Discard() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.m.current == s {
		s.m.current = nil
	}
	if s.m.ui != nil {
		s.m.ui.CloseDraftEditor()
	}
}
