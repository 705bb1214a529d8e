//go:build protogen

package directory

import (
	"context"
	"time"

	"github.com/monume/tracker/libs/grpcx"
	directoryv1 "github.com/monume/tracker/protos/gen/directory/v1"
)

// RemoteStaff pulls the staff roster from the central admin service.
type RemoteStaff interface {
	ListStaff(ctx context.Context) ([]Roster, error)
}

// Roster is one staff entry as reported by the admin service.
type Roster struct {
	ID   string
	Name string
}

type grpcRemoteStaff struct {
	client directoryv1.DirectoryServiceClient
}

func NewRemoteStaff(addr string) (RemoteStaff, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcRemoteStaff{client: directoryv1.NewDirectoryServiceClient(conn)}, nil
}

func (p *grpcRemoteStaff) ListStaff(ctx context.Context) ([]Roster, error) {
	resp, err := p.client.ListStaff(ctx, &directoryv1.ListStaffRequest{})
	if err != nil {
		return nil, err
	}
	out := make([]Roster, 0, len(resp.GetStaff()))
	for _, s := range resp.GetStaff() {
		out = append(out, Roster{ID: s.GetId(), Name: s.GetName()})
	}
	return out, nil
}
