package model

import (
	"strings"
	"time"
)

// AppointmentType drives the calendar color class for an event.
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeService      AppointmentType = "service"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeOther        AppointmentType = "other"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case TypeConsultation, TypeService, TypeFollowUp, TypeOther:
		return true
	}
	return false
}

type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (c Customer) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Staff is a host / sales rep assignable to appointments.
type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Appointment is the persisted record owned by the appointment store.
// Customer and host display fields are denormalized snapshots taken at
// write time; the ids carry identity, the snapshots carry display.
type Appointment struct {
	ID                    string          `json:"id"`
	Title                 string          `json:"title"`
	Start                 time.Time       `json:"start"`
	End                   time.Time       `json:"end"`
	Type                  AppointmentType `json:"type"`
	CustomerID            string          `json:"customer_id"`
	CustomerNameSnapshot  string          `json:"customer_name"`
	CustomerPhoneSnapshot string          `json:"customer_phone"`
	HostID                string          `json:"host_id,omitempty"`
	HostNameSnapshot      string          `json:"host_name,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

func (a Appointment) DurationMinutes() int {
	return int(a.End.Sub(a.Start) / time.Minute)
}

// Overlaps reports whether the appointment intersects the half-open
// interval [from, to).
func (a Appointment) Overlaps(from, to time.Time) bool {
	return a.Start.Before(to) && from.Before(a.End)
}
