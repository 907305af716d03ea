// Package room owns all admission state: which connections are approved or
// waiting in which rooms. Rooms are created by their first admission request
// and deleted the moment both sets drain. Each room carries its own lock so
// unrelated meetings never contend; the registry lock only guards the maps.
package room

import (
	"sync"

	"github.com/Preet416/remote-work-suite/internal/domain"
)

// AdmissionOutcome is the result of an admission request.
type AdmissionOutcome int

const (
	// HostApproved: the requester founded the room and was admitted directly.
	HostApproved AdmissionOutcome = iota
	// Waiting: the room exists, the requester is queued behind host approval.
	Waiting
	// AlreadyApproved: the requester is already an approved member; no-op.
	AlreadyApproved
)

// AdmissionResult reports an admission request's outcome and who to tell.
type AdmissionResult struct {
	Outcome AdmissionOutcome
	// NotifyApproved lists approved members to be told about the new waiting
	// entry. Empty unless Outcome is Waiting.
	NotifyApproved []string
}

// ApproveResult reports an approval attempt. A zero value means the approval
// was a no-op: unknown room, target not waiting, or approver not approved.
type ApproveResult struct {
	Approved       bool
	TargetIdentity domain.Identity
	// NotifyPeers lists approved members other than the target, the approver
	// included, each of which initiates a handshake toward the newcomer.
	NotifyPeers []string
}

// Removal describes the effect of taking one connection out of one room.
type Removal struct {
	RoomKey   string
	Remaining []string
	Deleted   bool
}

// Registry maps room keys to admission state. It also keeps a per-connection
// index of room memberships so disconnect cleanup touches only the rooms the
// connection was actually in.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*state
	index map[string]map[string]struct{} // connection id -> room keys
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*state),
		index: make(map[string]map[string]struct{}),
	}
}

// RequestAdmission handles a join-room request. The first connection to name
// an unknown room key is placed straight into the approved set; later
// arrivals go into the waiting set, idempotently, and the approved members
// are reported for notification.
func (r *Registry) RequestAdmission(roomKey, connID string, ident domain.Identity) AdmissionResult {
	ident = ident.OrAnonymous()

	for {
		r.mu.Lock()
		st, ok := r.rooms[roomKey]
		if !ok {
			st = newState()
			r.rooms[roomKey] = st
		}
		if _, ok := r.index[connID]; !ok {
			r.index[connID] = make(map[string]struct{})
		}
		r.index[connID][roomKey] = struct{}{}
		r.mu.Unlock()

		st.mu.Lock()
		if st.closed {
			// Lost a race with the deleting member; the map entry is gone,
			// so the next iteration founds a fresh room.
			st.mu.Unlock()
			continue
		}

		var res AdmissionResult
		switch {
		case containsKey(st.approved, connID):
			res.Outcome = AlreadyApproved
		case st.empty():
			st.approved[connID] = ident
			res.Outcome = HostApproved
		default:
			st.waiting[connID] = ident
			res.Outcome = Waiting
			res.NotifyApproved = st.approvedExcept()
		}
		st.mu.Unlock()
		return res
	}
}

// Approve moves target from waiting to approved. Unknown room, a target that
// is not waiting (already approved, disconnected, never requested), or an
// approver that is not itself approved all resolve to a silent no-op, so
// double and racing approvals are harmless.
func (r *Registry) Approve(roomKey, approverID, targetID string) ApproveResult {
	r.mu.RLock()
	st, ok := r.rooms[roomKey]
	r.mu.RUnlock()
	if !ok {
		return ApproveResult{}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed || !containsKey(st.approved, approverID) {
		return ApproveResult{}
	}
	ident, ok := st.waiting[targetID]
	if !ok {
		return ApproveResult{}
	}

	delete(st.waiting, targetID)
	st.approved[targetID] = ident

	return ApproveResult{
		Approved:       true,
		TargetIdentity: ident,
		NotifyPeers:    st.approvedExcept(targetID),
	}
}

// Leave removes the connection from a single room. Reports false if the room
// is unknown or the connection was not a member.
func (r *Registry) Leave(roomKey, connID string) (Removal, bool) {
	r.mu.Lock()
	st, ok := r.rooms[roomKey]
	if keys, idxOK := r.index[connID]; idxOK {
		delete(keys, roomKey)
		if len(keys) == 0 {
			delete(r.index, connID)
		}
	}
	r.mu.Unlock()
	if !ok {
		return Removal{}, false
	}
	return r.remove(st, roomKey, connID)
}

// DropConnection tears down every room membership the connection holds, in a
// single reconciliation pass. Returns one Removal per affected room.
func (r *Registry) DropConnection(connID string) []Removal {
	r.mu.Lock()
	keys := r.index[connID]
	delete(r.index, connID)
	r.mu.Unlock()

	removals := make([]Removal, 0, len(keys))
	for roomKey := range keys {
		r.mu.RLock()
		st, ok := r.rooms[roomKey]
		r.mu.RUnlock()
		if !ok {
			continue
		}
		if rem, ok := r.remove(st, roomKey, connID); ok {
			removals = append(removals, rem)
		}
	}
	return removals
}

// remove deletes connID from whichever set holds it and drops the room from
// the registry if both sets drained.
func (r *Registry) remove(st *state, roomKey, connID string) (Removal, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return Removal{}, false
	}
	if !containsKey(st.approved, connID) && !containsKey(st.waiting, connID) {
		return Removal{}, false
	}

	delete(st.approved, connID)
	delete(st.waiting, connID)

	rem := Removal{RoomKey: roomKey, Remaining: st.members()}
	if st.empty() {
		// Deleted before st.mu is released, so a racing admission that still
		// holds this state sees closed and retries against the fresh map.
		st.closed = true
		r.mu.Lock()
		delete(r.rooms, roomKey)
		r.mu.Unlock()
		rem.Deleted = true
	}
	return rem, true
}

// Member reports the admission state connID holds in roomKey, if any.
func (r *Registry) Member(roomKey, connID string) (MemberState, bool) {
	r.mu.RLock()
	st, ok := r.rooms[roomKey]
	r.mu.RUnlock()
	if !ok {
		return 0, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if containsKey(st.approved, connID) {
		return StateApproved, true
	}
	if containsKey(st.waiting, connID) {
		return StateWaiting, true
	}
	return 0, false
}

// Counts is a point-in-time membership snapshot of one room.
type Counts struct {
	Approved int `json:"approved"`
	Waiting  int `json:"waiting"`
}

// Stats snapshots membership counts for every live room.
func (r *Registry) Stats() map[string]Counts {
	r.mu.RLock()
	snapshot := make(map[string]*state, len(r.rooms))
	for key, st := range r.rooms {
		snapshot[key] = st
	}
	r.mu.RUnlock()

	stats := make(map[string]Counts, len(snapshot))
	for key, st := range snapshot {
		st.mu.Lock()
		if !st.closed {
			stats[key] = Counts{Approved: len(st.approved), Waiting: len(st.waiting)}
		}
		st.mu.Unlock()
	}
	return stats
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func containsKey(m map[string]domain.Identity, k string) bool {
	_, ok := m[k]
	return ok
}
