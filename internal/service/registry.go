package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prbretas/JEWELRY/internal/repository"
	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
	"github.com/prbretas/JEWELRY/pkg/validator"
)

type entry struct {
	session  *SessionService
	lastSeen time.Time
}

// Registry holds one SessionService per live session. Sessions are created
// on first use and rehydrated from the store; idle ones are evicted from
// memory while their snapshots stay persisted.
type Registry struct {
	store   repository.Store
	deps    Dependencies
	idleTTL time.Duration
	now     func() time.Time
	onEvict func(sessionID string)

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates a registry over store. Sessions idle longer than
// idleTTL are dropped by Sweep.
func NewRegistry(store repository.Store, deps Dependencies, idleTTL time.Duration) *Registry {
	return &Registry{
		store:    store,
		deps:     deps.withDefaults(),
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// OnEvict registers a callback run for every evicted session.
func (r *Registry) OnEvict(fn func(sessionID string)) {
	r.onEvict = fn
}

// Get returns the live session, creating and rehydrating it on first use.
func (r *Registry) Get(ctx context.Context, sessionID string) (*SessionService, error) {
	if err := validator.Var(sessionID, "sessionid"); err != nil {
		return nil, apperrors.InvalidInput("invalid session id")
	}

	r.mu.Lock()
	if e, ok := r.sessions[sessionID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.session, nil
	}

	snapshots := repository.NewSnapshotRepository(repository.Scope(r.store, sessionID))
	s := NewSessionService(sessionID, snapshots, r.deps)
	// Held until rehydrated so concurrent callers wait for the restored state.
	s.mu.Lock()
	r.sessions[sessionID] = &entry{session: s, lastSeen: r.now()}
	LiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	s.rehydrateLocked(context.WithoutCancel(ctx))
	s.mu.Unlock()

	return s, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle since before now minus the idle TTL and
// returns how many were evicted.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var evicted []string
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	LiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, id := range evicted {
		if r.onEvict != nil {
			r.onEvict(id)
		}
	}
	if len(evicted) > 0 {
		r.deps.Logger.Info("evicted idle sessions", slog.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			r.Sweep(t)
		}
	}
}
