package appointments

import (
	"strings"

	"github.com/monume/tracker/services/tracker-service/internal/model"
)

// NotAssigned is what display surfaces show when no host can be
// resolved. A raw id never reaches a display context.
const NotAssigned = "Not assigned"

// ResolveHostDisplayName turns whatever host information an appointment
// carries into a displayable name. The stored data may have a host id,
// a name snapshot, or only the visible label of a dropdown whose value
// never matched a real id, so resolution is tiered:
//
//  1. a non-empty name snapshot wins;
//  2. an exact staff id match;
//  3. a staff member whose name contains the hint (case-insensitive);
//  4. a staff member whose name contains any whitespace token of the hint;
//  5. "Not assigned".
//
// The function is total: it always returns a usable string and never an
// error, so display code stays unconditional.
func (s *Store) ResolveHostDisplayName(appt model.Appointment, hint string) string {
	if name := strings.TrimSpace(appt.HostNameSnapshot); name != "" {
		return name
	}

	if id := strings.TrimSpace(appt.HostID); id != "" {
		if host, ok := s.dir.Staff(id); ok {
			return host.Name
		}
	}

	if host, ok := s.matchStaffByHint(hint); ok {
		return host.Name
	}
	return NotAssigned
}

// matchStaffByHint is the name-hint half of the resolution chain: a
// whole-hint containment pass over the roster, then a token pass. The
// store also runs it at write time so a dropdown label whose value
// never matched a real id still lands a usable snapshot.
func (s *Store) matchStaffByHint(hint string) (model.Staff, bool) {
	needle := strings.ToLower(strings.TrimSpace(hint))
	if needle == "" {
		return model.Staff{}, false
	}

	staff := s.dir.StaffMembers()
	for _, member := range staff {
		if strings.Contains(strings.ToLower(member.Name), needle) {
			return member, true
		}
	}

	for _, member := range staff {
		name := strings.ToLower(member.Name)
		for _, token := range strings.Fields(needle) {
			if strings.Contains(name, token) {
				return member, true
			}
		}
	}

	return model.Staff{}, false
}
