//go:build !protogen

package directory

import "context"

// RemoteStaff pulls the staff roster from the central admin service.
type RemoteStaff interface {
	ListStaff(ctx context.Context) ([]Roster, error)
}

// Roster is one staff entry as reported by the admin service.
type Roster struct {
	ID   string
	Name string
}

// NewRemoteStaff returns nil in builds without generated proto stubs;
// callers treat a nil provider as "local roster only".
func NewRemoteStaff(_ string) (RemoteStaff, error) {
	return nil, nil
}
