package session

import (
	"context"
	"sync"
	"time"
)

// CleanupInterval is how often idle sessions are swept from memory.
const CleanupInterval = 30 * time.Second

type memoryEntry struct {
	mu         sync.Mutex // serializes updates of one session
	session    *Session
	lastAccess time.Time
	deleted    bool
}

// MemoryStore keeps sessions in process memory and expires them after an idle TTL.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*memoryEntry

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[string]*memoryEntry),
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) expireSessions() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		e.mu.Lock()
		if s.expired(e, now) {
			e.deleted = true
			delete(s.sessions, id)
		}
		e.mu.Unlock()
	}
}

// expired reports whether the entry sat idle for a full TTL; reads count as activity.
func (s *MemoryStore) expired(e *memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastAccess) >= s.ttl
}

func (s *MemoryStore) Create(context.Context) (*Session, error) {
	sess := New(s.now())
	s.mu.Lock()
	s.sessions[sess.ID] = &memoryEntry{session: sess, lastAccess: sess.CreatedAt}
	s.mu.Unlock()
	return sess.Clone(), nil
}

func (s *MemoryStore) entry(id string) (*memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	now := s.now()
	if e.deleted || s.expired(e, now) {
		return nil, ErrNotFound
	}
	e.lastAccess = now
	return e.session.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	now := s.now()
	if e.deleted || s.expired(e, now) {
		return nil, ErrNotFound
	}
	e.lastAccess = now
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := e.session.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = now
	e.session = working
	return working.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.deleted = true
		e.mu.Unlock()
	}
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
