package room

import (
	"sync"

	"github.com/Preet416/remote-work-suite/internal/domain"
)

// MemberState is the admission state a connection holds within a room.
type MemberState int

const (
	StateWaiting MemberState = iota
	StateApproved
)

func (s MemberState) String() string {
	if s == StateApproved {
		return "approved"
	}
	return "waiting"
}

// state holds one room's membership. A connection id appears in at most one
// of the two sets. The struct leaves the registry map only through delete;
// closed marks a state whose map entry is gone so late holders retry.
type state struct {
	mu       sync.Mutex
	closed   bool
	approved map[string]domain.Identity
	waiting  map[string]domain.Identity
}

func newState() *state {
	return &state{
		approved: make(map[string]domain.Identity),
		waiting:  make(map[string]domain.Identity),
	}
}

// empty reports whether both sets are empty. Callers hold mu.
func (s *state) empty() bool {
	return len(s.approved) == 0 && len(s.waiting) == 0
}

// members returns all connection ids in either set. Callers hold mu.
func (s *state) members() []string {
	ids := make([]string, 0, len(s.approved)+len(s.waiting))
	for id := range s.approved {
		ids = append(ids, id)
	}
	for id := range s.waiting {
		ids = append(ids, id)
	}
	return ids
}

// approvedExcept returns approved connection ids, skipping the given ones.
// Callers hold mu.
func (s *state) approvedExcept(skip ...string) []string {
	ids := make([]string, 0, len(s.approved))
outer:
	for id := range s.approved {
		for _, sk := range skip {
			if id == sk {
				continue outer
			}
		}
		ids = append(ids, id)
	}
	return ids
}
