package scheduler

import (
	"sync"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// Registry tracks which accounts the scheduler currently manages and which
// of them hold a live worker. Warmup accounts are registered without a
// worker; the scanner connects for them on its own short-lived clients.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

type session struct {
	accountID int64
	worker    *Worker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*session)}
}

// Register claims the account. Returns ErrAlreadyRunning when the account
// is already managed.
func (r *Registry) Register(accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[accountID]; ok {
		return domain.ErrAlreadyRunning
	}
	r.sessions[accountID] = &session{accountID: accountID}
	return nil
}

// Attach binds a live worker to a registered account.
func (r *Registry) Attach(accountID int64, w *Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[accountID]; ok {
		s.worker = w
	}
}

// Remove unregisters the account. It returns the account's worker (nil for
// a registration without one) and whether a registration was removed.
func (r *Registry) Remove(accountID int64) (*Worker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[accountID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, accountID)
	return s.worker, true
}

// IsRegistered reports whether the account is managed.
func (r *Registry) IsRegistered(accountID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[accountID]
	return ok
}

// IsLive reports whether the account holds a live worker.
func (r *Registry) IsLive(accountID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[accountID]
	return ok && s.worker != nil
}

// LiveCount returns the number of accounts with live workers.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.worker != nil {
			n++
		}
	}
	return n
}

// IDs returns the identifiers of all managed accounts.
func (r *Registry) IDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
