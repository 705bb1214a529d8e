package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/monume/tracker/services/tracker-service/internal/directory"
	"github.com/monume/tracker/services/tracker-service/internal/model"
)

type DirectoryHandler struct {
	repo   *directory.Repository
	logger *slog.Logger
}

func NewDirectoryHandler(repo *directory.Repository, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{repo: repo, logger: logger}
}

type customerItem struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func toCustomerItem(c model.Customer) customerItem {
	return customerItem{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		DisplayName: c.DisplayName(),
		Phone:       c.Phone,
		Email:       c.Email,
		Notes:       c.Notes,
	}
}

type createCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Notes     string `json:"notes"`
}

type updateCustomerRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Notes     *string `json:"notes"`
}

type staffItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createStaffRequest struct {
	Name string `json:"name"`
}

type updateStaffRequest struct {
	Name *string `json:"name"`
}

// Customers serves /api/v1/customers.
func (h *DirectoryHandler) Customers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers := h.repo.Customers()
		items := make([]customerItem, 0, len(customers))
		for _, c := range customers {
			items = append(items, toCustomerItem(c))
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req createCustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.LastName = strings.TrimSpace(req.LastName)
		if req.FirstName == "" && req.LastName == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		created, err := h.repo.CreateCustomer(r.Context(), model.Customer{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     strings.TrimSpace(req.Phone),
			Email:     strings.TrimSpace(req.Email),
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCustomerItem(created))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// CustomerItem serves /api/v1/customers/{id}.
func (h *DirectoryHandler) CustomerItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/customers/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, ok := h.repo.Customer(id)
		if !ok {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toCustomerItem(c))
	case http.MethodPut:
		var req updateCustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		updated, err := h.repo.UpdateCustomer(r.Context(), id, directory.CustomerPatch{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Email:     req.Email,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toCustomerItem(updated))
	case http.MethodDelete:
		if err := h.repo.RemoveCustomer(r.Context(), id); err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Staff serves /api/v1/staff.
func (h *DirectoryHandler) Staff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		members := h.repo.StaffMembers()
		items := make([]staffItem, 0, len(members))
		for _, s := range members {
			items = append(items, staffItem{ID: s.ID, Name: s.Name})
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req createStaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		created, err := h.repo.CreateStaff(r.Context(), model.Staff{Name: req.Name})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, staffItem{ID: created.ID, Name: created.Name})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// StaffItem serves /api/v1/staff/{id}.
func (h *DirectoryHandler) StaffItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/staff/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s, ok := h.repo.Staff(id)
		if !ok {
			http.Error(w, "staff not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, staffItem{ID: s.ID, Name: s.Name})
	case http.MethodPut:
		var req updateStaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		updated, err := h.repo.UpdateStaff(r.Context(), id, directory.StaffPatch{Name: req.Name})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, staffItem{ID: updated.ID, Name: updated.Name})
	case http.MethodDelete:
		if err := h.repo.RemoveStaff(r.Context(), id); err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
