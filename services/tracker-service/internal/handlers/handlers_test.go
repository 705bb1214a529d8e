package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/monume/tracker/services/tracker-service/internal/appointments"
	"github.com/monume/tracker/services/tracker-service/internal/calendar"
	"github.com/monume/tracker/services/tracker-service/internal/directory"
	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
	"github.com/monume/tracker/services/tracker-service/internal/session"
)

func newTestMux(t *testing.T) (*http.ServeMux, *appointments.Store, *directory.Repository) {
	t.Helper()
	ctx := context.Background()
	mem := kvstore.NewMemory()
	logger := slog.Default()

	repo, err := directory.NewRepository(ctx, mem)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if _, err := repo.CreateCustomer(ctx, model.Customer{ID: "c1", FirstName: "Ana", LastName: "Lopez", Phone: "555-0101"}); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if _, err := repo.CreateStaff(ctx, model.Staff{ID: "s1", Name: "Maria Santos"}); err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}

	store, err := appointments.NewStore(ctx, mem, repo)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	sessions := session.NewManager(store, nil)
	projection := calendar.New(store)

	apptHandler := NewAppointmentHandler(store, sessions, logger)
	calHandler := NewCalendarHandler(projection, store, logger)
	dirHandler := NewDirectoryHandler(repo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/appointments", apptHandler.Collection)
	mux.HandleFunc("/api/v1/appointments/", apptHandler.Item)
	mux.HandleFunc("/api/v1/calendar/events", calHandler.Events)
	mux.HandleFunc("/api/v1/slots", calHandler.Slots)
	mux.HandleFunc("/api/v1/stats", calHandler.Stats)
	mux.HandleFunc("/api/v1/customers", dirHandler.Customers)
	mux.HandleFunc("/api/v1/customers/", dirHandler.CustomerItem)
	mux.HandleFunc("/api/v1/staff", dirHandler.Staff)
	mux.HandleFunc("/api/v1/staff/", dirHandler.StaffItem)
	return mux, store, repo
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppointment(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/appointments",
		`{"start":"2026-03-02T10:00:00","duration_minutes":45,"type":"service","customer_id":"c1","host_id":"s1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("response missing id")
	}
	if got.End != "2026-03-02T10:45:00Z" {
		t.Fatalf("end = %q", got.End)
	}
	if got.CustomerName != "Ana Lopez" {
		t.Fatalf("customer_name = %q", got.CustomerName)
	}
	if got.HostDisplay != "Maria Santos" {
		t.Fatalf("host_display = %q", got.HostDisplay)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	mux, _, _ := newTestMux(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing customer", `{"start":"2026-03-02T10:00:00"}`},
		{"unknown customer", `{"start":"2026-03-02T10:00:00","customer_id":"ghost"}`},
		{"missing start", `{"customer_id":"c1"}`},
		{"bad type", `{"start":"2026-03-02T10:00:00","customer_id":"c1","type":"party"}`},
		{"negative duration", `{"start":"2026-03-02T10:00:00","customer_id":"c1","duration_minutes":-5}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/appointments", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestGetUpdateDeleteAppointment(t *testing.T) {
	mux, store, _ := newTestMux(t)
	ctx := context.Background()

	created, err := store.Create(ctx, appointments.Draft{Start: "2026-03-02T10:00:00", CustomerID: "c1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/appointments/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/appointments/"+created.ID, `{"title":"Renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("title = %q", updated.Title)
	}
	if updated.Start != "2026-03-02T10:00:00Z" {
		t.Fatalf("untouched start changed: %q", updated.Start)
	}

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/appointments/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	// Idempotent: a second delete of the same id also succeeds.
	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/appointments/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second delete status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/appointments/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestUpdateUnknownAppointment(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPut, "/api/v1/appointments/ghost", `{"title":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListAppointmentsRange(t *testing.T) {
	mux, store, _ := newTestMux(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, appointments.Draft{Start: "2026-03-02T09:00:00", CustomerID: "c1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, appointments.Draft{Start: "2026-03-05T09:00:00", CustomerID: "c1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/appointments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var all []appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d appointments, want 2", len(all))
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/appointments?from=2026-03-02T00:00:00&to=2026-03-03T00:00:00", "")
	var ranged []appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &ranged); err != nil {
		t.Fatalf("decode ranged list: %v", err)
	}
	if len(ranged) != 1 {
		t.Fatalf("got %d appointments in range, want 1", len(ranged))
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/appointments?from=bogus&to=2026-03-03T00:00:00", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad range status = %d, want 400", rec.Code)
	}
}

func TestCalendarEventsAndStats(t *testing.T) {
	mux, store, _ := newTestMux(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, appointments.Draft{Start: "2026-03-02T09:00:00", Type: "service", CustomerID: "c1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/calendar/events?from=2026-03-02T00:00:00&to=2026-03-03T00:00:00", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("events status = %d", rec.Code)
	}
	var events []calendarEventItem
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].ColorClass != "event-service" {
		t.Fatalf("color_class = %q", events[0].ColorClass)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/calendar/events?from=2026-03-03T00:00:00&to=2026-03-02T00:00:00", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("total = %d, want 1", stats.Total)
	}
}

func TestSlots(t *testing.T) {
	mux, store, _ := newTestMux(t)
	ctx := context.Background()

	// Far enough out that the "no slots in the past" filter stays inert.
	if _, err := store.Create(ctx, appointments.Draft{Start: "2030-06-03T10:00:00", CustomerID: "c1", HostID: "s1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/slots?host_id=s1&date=2030-06-03&duration=60", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("slots status = %d, body %s", rec.Code, rec.Body.String())
	}
	var slots []slotItem
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatalf("expected open slots on a mostly free day")
	}
	for _, s := range slots {
		if s.StartTime == "2030-06-03T10:00:00Z" || s.StartTime == "2030-06-03T10:30:00Z" {
			t.Fatalf("booked interval offered as a slot: %+v", s)
		}
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/slots?date=06/03/2030", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/slots?date=2030-06-03&duration=-10", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad duration status = %d, want 400", rec.Code)
	}
}

func TestCustomerEndpoints(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/customers", `{"first_name":"Ben","last_name":"Okafor","phone":"555-0102"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created customerItem
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.DisplayName != "Ben Okafor" {
		t.Fatalf("display_name = %q", created.DisplayName)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/customers", `{"phone":"555-0000"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("nameless create status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/customers/"+created.ID, `{"phone":"555-0199"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	var updated customerItem
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Phone != "555-0199" || updated.FirstName != "Ben" {
		t.Fatalf("patch semantics broken: %+v", updated)
	}

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/customers/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/customers/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestDeleteCustomerKeepsAppointmentSnapshot(t *testing.T) {
	mux, store, repo := newTestMux(t)
	ctx := context.Background()

	created, err := store.Create(ctx, appointments.Draft{Start: "2026-03-02T10:00:00", CustomerID: "c1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.RemoveCustomer(ctx, "c1"); err != nil {
		t.Fatalf("RemoveCustomer: %v", err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/appointments/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CustomerName != "Ana Lopez" || got.CustomerID != "c1" {
		t.Fatalf("snapshot lost after customer removal: %+v", got)
	}
}

func TestCreateWithMismatchedHostValueAndLabel(t *testing.T) {
	mux, _, repo := newTestMux(t)
	if _, err := repo.CreateStaff(context.Background(), model.Staff{ID: "1", Name: "David Johnson"}); err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/appointments",
		`{"start":"2026-03-02T10:00:00","customer_id":"c1","host_id":"99","host_name":"David Johnson"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.HostID != "99" {
		t.Fatalf("host id = %q, want the submitted value kept", got.HostID)
	}
	if got.HostDisplay != "David Johnson" {
		t.Fatalf("host display = %q, want the label to resolve", got.HostDisplay)
	}
}

func TestDeleteStaffKeepsAppointmentHost(t *testing.T) {
	mux, store, repo := newTestMux(t)
	ctx := context.Background()

	created, err := store.Create(ctx, appointments.Draft{Start: "2026-03-02T10:00:00", CustomerID: "c1", HostID: "s1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.RemoveStaff(ctx, "s1"); err != nil {
		t.Fatalf("RemoveStaff: %v", err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/appointments/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.HostID != "s1" {
		t.Fatalf("host reference lost after staff removal: %+v", got)
	}
	if got.HostDisplay != "Maria Santos" {
		t.Fatalf("HostDisplay = %q, want name snapshot taken at create", got.HostDisplay)
	}
}

func TestStaffEndpoints(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/staff", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var members []staffItem
	if err := json.Unmarshal(rec.Body.Bytes(), &members); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(members) != 1 || members[0].Name != "Maria Santos" {
		t.Fatalf("seeded staff missing: %v", members)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/staff", `{"name":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/staff/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing staff status = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPatch, "/api/v1/appointments", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/stats", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("stats post status = %d, want 405", rec.Code)
	}
}
