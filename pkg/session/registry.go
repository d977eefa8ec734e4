package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cleaner handles a session that has ended: export, notification, and
// archival side effects. Invoked by the watcher on expiry and by
// explicit stop paths. Implementations are best-effort; Clean never
// returns an error because no step's failure can undo the removal.
type Cleaner interface {
	Clean(ctx context.Context, id string, s Session)
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func(ctx context.Context, id string, s Session)

// Clean calls f.
func (f CleanerFunc) Clean(ctx context.Context, id string, s Session) { f(ctx, id, s) }

// Registry is a concurrent mapping from conversation ID to Session.
// One mutex guards the whole map; critical sections are O(1) map
// operations plus a struct copy. Query execution and network I/O never
// happen under the lock.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cleaner Cleaner
	now     func() time.Time

	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

// NewRegistry creates a registry. The cleaner runs whenever a session
// expires; it may be nil if expiry needs no side effects (tests).
func NewRegistry(cleaner Cleaner) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		cleaner:  cleaner,
		now:      time.Now,
		closed:   make(chan struct{}),
	}
}

// Insert registers a session for a conversation and starts its expiry
// watcher. The insert happens-before the watcher starts. Returns
// ErrSessionExists if the conversation already has a session.
func (r *Registry) Insert(id string, s Session) error {
	r.mu.Lock()
	if _, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return ErrSessionExists
	}
	if s.LastUsed.IsZero() {
		s.LastUsed = r.now()
	}
	r.sessions[id] = &s
	r.mu.Unlock()

	r.wg.Add(1)
	go r.watch(id)
	return nil
}

// GetAndTouch returns a snapshot of the conversation's session and
// atomically bumps its last-used timestamp. The snapshot's DB handle
// is shared with the registry's copy.
func (r *Registry) GetAndTouch(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	if now := r.now(); now.After(s.LastUsed) {
		s.LastUsed = now
	}
	return *s, true
}

// Get returns a snapshot without touching the timestamp.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Mutate applies fn to the conversation's session under the lock.
// Returns ErrNoSession if none is registered. fn must not block.
func (r *Registry) Mutate(id string, fn func(*Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrNoSession
	}
	fn(s)
	return nil
}

// Remove unregisters the conversation's session and returns it. The
// session's watcher observes the absence on its next wake and exits
// without side effects.
func (r *Registry) Remove(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, id)
	return *s, true
}

// List returns a snapshot of all live sessions keyed by conversation.
func (r *Registry) List() map[string]Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Session, len(r.sessions))
	for id, s := range r.sessions {
		out[id] = *s
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops all watchers and waits for them to exit, bounded by ctx.
// It does not clean or remove sessions; shutdown export is a separate
// concern (see Exporter).
func (r *Registry) Close(ctx context.Context) error {
	r.once.Do(func() { close(r.closed) })

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// removeIfExpired deletes the session only if its live last-used time
// and TTL still say expired. A touch landing after the watcher's
// snapshot keeps the session registered.
func (r *Registry) removeIfExpired(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	if r.now().Before(s.LastUsed.Add(s.TTL)) {
		return Session{}, false
	}
	delete(r.sessions, id)
	return *s, true
}

// watch is the per-session expiry loop. Each iteration re-reads the
// live last-used time and TTL, so runtime TTL changes are honored at
// the next wake; a TTL shortened mid-sleep takes effect when the
// previously scheduled wake fires, not immediately.
func (r *Registry) watch(id string) {
	defer r.wg.Done()

	for {
		s, ok := r.Get(id)
		if !ok {
			// Removed by an explicit stop elsewhere; cleanup already
			// happened there.
			return
		}

		deadline := s.LastUsed.Add(s.TTL)
		now := r.now()
		if !now.Before(deadline) {
			removed, expired := r.removeIfExpired(id)
			if !expired {
				// Touched after the snapshot, or removed elsewhere.
				// Re-read and re-evaluate.
				continue
			}
			slog.Info("session expired", "conversation", id, "ttl", removed.TTL)
			if r.cleaner != nil {
				r.cleaner.Clean(context.Background(), id, removed)
			}
			return
		}

		timer := time.NewTimer(deadline.Sub(now))
		select {
		case <-timer.C:
		case <-r.closed:
			timer.Stop()
			return
		}
	}
}
