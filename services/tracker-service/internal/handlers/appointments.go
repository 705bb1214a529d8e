package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/monume/tracker/services/tracker-service/internal/appointments"
	"github.com/monume/tracker/services/tracker-service/internal/model"
	"github.com/monume/tracker/services/tracker-service/internal/session"
)

type AppointmentHandler struct {
	store    *appointments.Store
	sessions *session.Manager
	logger   *slog.Logger
}

func NewAppointmentHandler(store *appointments.Store, sessions *session.Manager, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{store: store, sessions: sessions, logger: logger}
}

type appointmentDraftRequest struct {
	Title           string `json:"title"`
	Type            string `json:"type"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
	CustomerID      string `json:"customer_id"`
	HostID          string `json:"host_id"`
	HostName        string `json:"host_name"`
	Notes           string `json:"notes"`
}

func (r appointmentDraftRequest) draft() appointments.Draft {
	return appointments.Draft{
		Title:           strings.TrimSpace(r.Title),
		Type:            strings.TrimSpace(r.Type),
		Date:            strings.TrimSpace(r.Date),
		Time:            strings.TrimSpace(r.Time),
		Start:           strings.TrimSpace(r.Start),
		DurationMinutes: r.DurationMinutes,
		CustomerID:      strings.TrimSpace(r.CustomerID),
		HostID:          strings.TrimSpace(r.HostID),
		HostNameHint:    strings.TrimSpace(r.HostName),
		Notes:           r.Notes,
	}
}

type appointmentItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
	Type            string `json:"type"`
	CustomerID      string `json:"customer_id"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	HostID          string `json:"host_id,omitempty"`
	HostDisplay     string `json:"host_display"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func (h *AppointmentHandler) item(appt model.Appointment) appointmentItem {
	return appointmentItem{
		ID:              appt.ID,
		Title:           appt.Title,
		Start:           appt.Start.Format(time.RFC3339),
		End:             appt.End.Format(time.RFC3339),
		DurationMinutes: appt.DurationMinutes(),
		Type:            string(appt.Type),
		CustomerID:      appt.CustomerID,
		CustomerName:    appt.CustomerNameSnapshot,
		CustomerPhone:   appt.CustomerPhoneSnapshot,
		HostID:          appt.HostID,
		HostDisplay:     h.store.ResolveHostDisplayName(appt, ""),
		Notes:           appt.Notes,
		CreatedAt:       appt.CreatedAt.Format(time.RFC3339),
	}
}

// Collection serves /api/v1/appointments.
func (h *AppointmentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item serves /api/v1/appointments/{id}.
func (h *AppointmentHandler) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/appointments/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	fromRaw := strings.TrimSpace(r.URL.Query().Get("from"))
	toRaw := strings.TrimSpace(r.URL.Query().Get("to"))

	var appts []model.Appointment
	if fromRaw != "" || toRaw != "" {
		from, err := appointments.ParseTimestamp(fromRaw)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		to, err := appointments.ParseTimestamp(toRaw)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		appts = h.store.ListRange(from, to)
	} else {
		appts = h.store.List()
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, h.item(appt))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req appointmentDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	sess := h.sessions.OpenNew()
	sess.Stage(req.draft())
	appt, err := sess.Commit(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.item(appt))
}

func (h *AppointmentHandler) get(w http.ResponseWriter, id string) {
	appt, ok := h.store.Get(id)
	if !ok {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.item(appt))
}

func (h *AppointmentHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req appointmentDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.Open(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	sess.Stage(req.draft())
	appt, err := sess.Commit(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.item(appt))
}

func (h *AppointmentHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
