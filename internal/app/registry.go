package app

import (
	"sync"

	"trivia-room-service/internal/domain"
)

// Membership is the room a connection belongs to and its role there.
// A zero Membership means the connection is not in any room.
type Membership struct {
	Pin  string
	Role domain.Role
}

// Registry maps connection handles to their room membership.
type Registry struct {
	mu      sync.RWMutex
	members map[string]Membership
}

func NewRegistry() *Registry {
	return &Registry{members: make(map[string]Membership)}
}

func (r *Registry) Connect(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[handle]; !ok {
		r.members[handle] = Membership{}
	}
}

// Disconnect forgets the handle and returns the membership it held.
func (r *Registry) Disconnect(handle string) (Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[handle]
	delete(r.members, handle)
	return m, ok && m.Pin != ""
}

func (r *Registry) Lookup(handle string) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[handle]
	return m, ok && m.Pin != ""
}

// Bind records the handle as a member of pin. Unknown handles are ignored.
func (r *Registry) Bind(handle, pin string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[handle]; !ok {
		return
	}
	r.members[handle] = Membership{Pin: pin, Role: role}
}

// Release clears the handle's membership if it still points at pin.
func (r *Registry) Release(handle, pin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[handle]; ok && m.Pin == pin {
		r.members[handle] = Membership{}
	}
}

// ReleaseRoom clears every membership that points at pin.
func (r *Registry) ReleaseRoom(pin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for handle, m := range r.members {
		if m.Pin == pin {
			r.members[handle] = Membership{}
		}
	}
}

// Count returns the number of connected handles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
