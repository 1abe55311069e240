package hub

import "sync"

// PresenceRegistry tracks which users currently hold live connections. It is
// an injected component, not module-global state, so tests can construct and
// reset their own instance. A user is online while at least one connection is
// registered; the last unregister flips them offline.
type PresenceRegistry struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{} // userID -> connection ids
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{users: make(map[string]map[string]struct{})}
}

// Register records a connection. Returns true when this is the user's first
// live connection, i.e. the offline→online transition.
func (p *PresenceRegistry) Register(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		conns = make(map[string]struct{})
		p.users[userID] = conns
	}
	conns[connID] = struct{}{}
	return len(conns) == 1
}

// Unregister drops a connection. Returns true when it was the user's last
// one, i.e. the online→offline transition.
func (p *PresenceRegistry) Unregister(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		return false
	}
	if _, exists := conns[connID]; !exists {
		return false
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(p.users, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users[userID]) > 0
}

// ConnectionsFor returns the connection ids of one user.
func (p *PresenceRegistry) ConnectionsFor(userID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := p.users[userID]
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// OnlineUsers returns every user id with at least one connection.
func (p *PresenceRegistry) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.users))
	for id := range p.users {
		out = append(out, id)
	}
	return out
}

// Reset clears all registrations.
func (p *PresenceRegistry) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = make(map[string]map[string]struct{})
}
