package notify

import "sync"

// Registry maps audience keys (a customer id, or StaffAudience) to the set
// of live connections listening for that audience. Several connections may
// share one key (multiple tabs/devices).
type Registry struct {
	mu        sync.RWMutex
	audiences map[string]map[Conn]struct{}
	conns     map[Conn]string
}

func NewRegistry() *Registry {
	return &Registry{
		audiences: make(map[string]map[Conn]struct{}),
		conns:     make(map[Conn]string),
	}
}

func (r *Registry) Register(c Conn, audience string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.audiences[audience] == nil {
		r.audiences[audience] = make(map[Conn]struct{})
	}
	r.audiences[audience][c] = struct{}{}
	r.conns[c] = audience
}

func (r *Registry) Unregister(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	audience, ok := r.conns[c]
	if !ok {
		return
	}
	delete(r.conns, c)
	set := r.audiences[audience]
	delete(set, c)
	if len(set) == 0 {
		delete(r.audiences, audience)
	}
}

// Lookup returns a snapshot of the audience's connections. Empty means
// nobody is listening live, which is not an error.
func (r *Registry) Lookup(audience string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.audiences[audience]
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Count(audience string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.audiences[audience])
}
