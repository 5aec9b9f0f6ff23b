package cat

import (
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Registry defaults.
const (
	DefaultSessionTTL    = 2 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
	registryShards       = 16
)

// Manager is the process-wide registry of active sessions, sharded to keep
// lock contention off the hot path.
type Manager struct {
	shards [registryShards]*registryShard
	ttl    time.Duration
	now    func() time.Time
}

type registryShard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &Manager{ttl: ttl, now: time.Now}
	for i := range m.shards {
		m.shards[i] = &registryShard{sessions: make(map[string]*Session)}
	}
	return m
}

func (m *Manager) shard(id string) *registryShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return m.shards[h.Sum32()%registryShards]
}

// NewSessionID returns a collision-resistant dash-free identifier.
func NewSessionID() string {
	u := uuid.New()
	buf := make([]byte, 0, 32)
	const hex = "0123456789abcdef"
	for _, b := range u {
		buf = append(buf, hex[b>>4], hex[b&0x0f])
	}
	return string(buf)
}

// Create registers a new session for the profile and returns it.
func (m *Manager) Create(userID string, profile models.Profile) *Session {
	id := NewSessionID()
	s := NewSession(id, userID, profile, m.now())
	sh := m.shard(id)
	sh.mu.Lock()
	sh.sessions[id] = s
	sh.mu.Unlock()
	return s
}

// Get returns an active session. Expired sessions are reported as gone;
// unknown ids as not found.
func (m *Manager) Get(id string) (*Session, error) {
	sh := m.shard(id)
	sh.mu.RLock()
	s, ok := sh.sessions[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, models.NewError(models.KindNotFound, "session not found")
	}
	if m.expired(s) {
		return nil, models.NewError(models.KindGone, "session expired")
	}
	return s, nil
}

// Drop removes a session from the registry after archiving.
func (m *Manager) Drop(id string) {
	sh := m.shard(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
}

// ActiveCount returns the number of registered sessions.
func (m *Manager) ActiveCount() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

func (m *Manager) expired(s *Session) bool {
	s.Lock()
	defer s.Unlock()
	return m.now().Sub(s.LastActivity) > m.ttl
}

// SweepExpired terminates and collects idle sessions. The returned sessions
// are already marked expired; the caller archives them. A session terminated
// during a concurrent handler call keeps its handler-set reason.
func (m *Manager) SweepExpired() []*Session {
	var expired []*Session
	for _, sh := range m.shards {
		sh.mu.Lock()
		for id, s := range sh.sessions {
			s.Lock()
			idle := m.now().Sub(s.LastActivity) > m.ttl
			if idle {
				if s.State() != models.StateTerminated {
					s.Terminate(models.ReasonExpired)
				}
				delete(sh.sessions, id)
				expired = append(expired, s)
			}
			s.Unlock()
		}
		sh.mu.Unlock()
	}
	if len(expired) > 0 {
		log.Printf("[cat] swept %d expired sessions", len(expired))
	}
	return expired
}

// StartSweeper runs SweepExpired on a ticker until stop is closed. Each
// expired session is handed to archive.
func (m *Manager) StartSweeper(interval time.Duration, stop <-chan struct{}, archive func(*Session)) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, s := range m.SweepExpired() {
					archive(s)
				}
			case <-stop:
				return
			}
		}
	}()
}
