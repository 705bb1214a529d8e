// Package directory is the entity repository for customers and staff.
// Appointments reference these entities by id but own their display
// snapshots, so nothing here ever cascades into the appointment store.
package directory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
)

type Repository struct {
	mu        sync.Mutex
	store     kvstore.Store
	customers map[string]model.Customer
	staff     map[string]model.Staff
}

// NewRepository hydrates both collections from the durable store.
func NewRepository(ctx context.Context, store kvstore.Store) (*Repository, error) {
	r := &Repository{
		store:     store,
		customers: map[string]model.Customer{},
		staff:     map[string]model.Staff{},
	}

	var customers []model.Customer
	if err := loadCollection(ctx, store, kvstore.Customers, &customers); err != nil {
		return nil, err
	}
	for _, c := range customers {
		r.customers[c.ID] = c
	}

	var staff []model.Staff
	if err := loadCollection(ctx, store, kvstore.Staff, &staff); err != nil {
		return nil, err
	}
	for _, s := range staff {
		r.staff[s.ID] = s
	}
	return r, nil
}

func loadCollection(ctx context.Context, store kvstore.Store, name string, out any) error {
	payload, err := store.Load(ctx, name)
	if err != nil {
		return model.Storage("load "+name, err)
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return model.Storage("decode "+name, err)
	}
	return nil
}

// CustomerPatch carries a partial update; nil fields keep the stored value.
type CustomerPatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
	Notes     *string
}

// StaffPatch carries a partial update; nil fields keep the stored value.
type StaffPatch struct {
	Name *string
}

func (r *Repository) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := r.persistCustomersWith(ctx, c, ""); err != nil {
		return model.Customer{}, err
	}
	r.customers[c.ID] = c
	return c, nil
}

func (r *Repository) Customer(id string) (model.Customer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	return c, ok
}

func (r *Repository) Customers() []model.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a := strings.ToLower(out[i].DisplayName())
		b := strings.ToLower(out[j].DisplayName())
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Repository) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return model.Customer{}, model.NotFound("customer", id)
	}
	if patch.FirstName != nil {
		c.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		c.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if err := r.persistCustomersWith(ctx, c, ""); err != nil {
		return model.Customer{}, err
	}
	r.customers[id] = c
	return c, nil
}

// RemoveCustomer is a hard delete. Appointments referencing the customer
// keep their id and snapshot untouched.
func (r *Repository) RemoveCustomer(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customers[id]; !ok {
		return model.NotFound("customer", id)
	}
	if err := r.persistCustomersWith(ctx, model.Customer{}, id); err != nil {
		return err
	}
	delete(r.customers, id)
	return nil
}

func (r *Repository) CreateStaff(ctx context.Context, s model.Staff) (model.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := r.persistStaffWith(ctx, s, ""); err != nil {
		return model.Staff{}, err
	}
	r.staff[s.ID] = s
	return s, nil
}

func (r *Repository) Staff(id string) (model.Staff, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	return s, ok
}

func (r *Repository) StaffMembers() []model.Staff {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Staff, 0, len(r.staff))
	for _, s := range r.staff {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a := strings.ToLower(out[i].Name)
		b := strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Repository) UpdateStaff(ctx context.Context, id string, patch StaffPatch) (model.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.staff[id]
	if !ok {
		return model.Staff{}, model.NotFound("staff", id)
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if err := r.persistStaffWith(ctx, s, ""); err != nil {
		return model.Staff{}, err
	}
	r.staff[id] = s
	return s, nil
}

// RemoveStaff is a hard delete with no cascade: appointments keep their
// hostId and last-known host name snapshot.
func (r *Repository) RemoveStaff(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.staff[id]; !ok {
		return model.NotFound("staff", id)
	}
	if err := r.persistStaffWith(ctx, model.Staff{}, id); err != nil {
		return err
	}
	delete(r.staff, id)
	return nil
}

// UpsertCustomer applies an admin-side sync event.
func (r *Repository) UpsertCustomer(ctx context.Context, c model.Customer) error {
	if c.ID == "" {
		return model.Invalid("id", "customer id required for upsert")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.persistCustomersWith(ctx, c, ""); err != nil {
		return err
	}
	r.customers[c.ID] = c
	return nil
}

// UpsertStaff applies an admin-side sync event.
func (r *Repository) UpsertStaff(ctx context.Context, s model.Staff) error {
	if s.ID == "" {
		return model.Invalid("id", "staff id required for upsert")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.persistStaffWith(ctx, s, ""); err != nil {
		return err
	}
	r.staff[s.ID] = s
	return nil
}

// persistCustomersWith writes the customer collection as it would look
// after applying the staged change (an upsert of c, or a removal when
// removeID is set). The in-memory map is only touched after a durable
// write succeeds, so a StorageError never leaves a torn state.
func (r *Repository) persistCustomersWith(ctx context.Context, c model.Customer, removeID string) error {
	list := make([]model.Customer, 0, len(r.customers)+1)
	for id, existing := range r.customers {
		if id == removeID || id == c.ID {
			continue
		}
		list = append(list, existing)
	}
	if removeID == "" {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	payload, err := json.Marshal(list)
	if err != nil {
		return model.Storage("encode "+kvstore.Customers, err)
	}
	if err := r.store.Save(ctx, kvstore.Customers, payload); err != nil {
		return model.Storage("save "+kvstore.Customers, err)
	}
	return nil
}

func (r *Repository) persistStaffWith(ctx context.Context, s model.Staff, removeID string) error {
	list := make([]model.Staff, 0, len(r.staff)+1)
	for id, existing := range r.staff {
		if id == removeID || id == s.ID {
			continue
		}
		list = append(list, existing)
	}
	if removeID == "" {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	payload, err := json.Marshal(list)
	if err != nil {
		return model.Storage("encode "+kvstore.Staff, err)
	}
	if err := r.store.Save(ctx, kvstore.Staff, payload); err != nil {
		return model.Storage("save "+kvstore.Staff, err)
	}
	return nil
}
