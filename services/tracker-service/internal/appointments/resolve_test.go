package appointments

import (
	"context"
	"testing"

	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
)

func TestResolveHostDisplayName_SnapshotWins(t *testing.T) {
	s := newTestStore(t)

	appt := model.Appointment{HostID: "s2", HostNameSnapshot: "Maria Santos"}
	if got := s.ResolveHostDisplayName(appt, "James"); got != "Maria Santos" {
		t.Fatalf("got %q, want snapshot to win over id and hint", got)
	}
}

func TestResolveHostDisplayName_IDLookup(t *testing.T) {
	s := newTestStore(t)

	appt := model.Appointment{HostID: "s2"}
	if got := s.ResolveHostDisplayName(appt, ""); got != "James Wu" {
		t.Fatalf("got %q, want James Wu", got)
	}
}

func TestResolveHostDisplayName_FullHintMatch(t *testing.T) {
	s := newTestStore(t)

	appt := model.Appointment{HostID: "stale-id"}
	if got := s.ResolveHostDisplayName(appt, "maria santos"); got != "Maria Santos" {
		t.Fatalf("got %q, want case-insensitive name match", got)
	}
}

func TestResolveHostDisplayName_TokenFallback(t *testing.T) {
	s := newTestStore(t)

	// No staff name contains the whole hint, but "Santos" matches one token.
	appt := model.Appointment{}
	if got := s.ResolveHostDisplayName(appt, "Dr. Santos"); got != "Maria Santos" {
		t.Fatalf("got %q, want token fallback to Maria Santos", got)
	}
}

func TestResolveHostDisplayName_NotAssigned(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		appt model.Appointment
		hint string
	}{
		{model.Appointment{}, ""},
		{model.Appointment{HostID: "nobody"}, ""},
		{model.Appointment{}, "Zelda Quixote"},
		{model.Appointment{HostID: "  "}, "   "},
	}
	for _, tc := range cases {
		if got := s.ResolveHostDisplayName(tc.appt, tc.hint); got != NotAssigned {
			t.Fatalf("appt=%+v hint=%q: got %q, want %q", tc.appt, tc.hint, got, NotAssigned)
		}
	}
}

func TestResolveHostDisplayName_EmptyRoster(t *testing.T) {
	s, err := NewStore(context.Background(), kvstore.NewMemory(), &stubDirectory{customers: map[string]model.Customer{}})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := s.ResolveHostDisplayName(model.Appointment{HostID: "s1"}, "anyone"); got != NotAssigned {
		t.Fatalf("got %q, want %q with empty roster", got, NotAssigned)
	}
}
