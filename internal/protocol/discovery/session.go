package discovery

import (
	"context"
	"sync"
	"time"

	"deaddrop/internal/domain"
)

// DefaultTTL is how long a challenge session may be redeemed.
const DefaultTTL = 120 * time.Second

// Candidate is a stored message as captured when a session begins.
type Candidate struct {
	ID        domain.MessageID
	PublicKey domain.Point
}

// Session is the server-side state of one discovery round. Candidates are
// held in the order the blinded values were sent.
type Session struct {
	ID         domain.SessionID
	Secret     domain.Scalar
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Candidates []Candidate
}

// SessionStore keeps sessions between Begin and Redeem.
type SessionStore interface {
	Put(s Session) error
	// Take removes and returns the session. It fails with
	// domain.ErrSessionReplay if the session was already taken and with
	// domain.ErrSessionExpiredOrUnknown if it is unknown or expired.
	Take(id domain.SessionID, now time.Time) (Session, error)
}

// MemorySessions is a mutex-guarded in-memory SessionStore. Taken sessions
// leave a tombstone until their original expiry so replays are reported as
// such.
type MemorySessions struct {
	mu         sync.Mutex
	sessions   map[domain.SessionID]Session
	tombstones map[domain.SessionID]time.Time
}

// NewMemorySessions returns an empty session table.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		sessions:   make(map[domain.SessionID]Session),
		tombstones: make(map[domain.SessionID]time.Time),
	}
}

// Put stores s.
func (m *MemorySessions) Put(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked(s.CreatedAt)
	m.sessions[s.ID] = s
	return nil
}

// Take removes and returns the session with id.
func (m *MemorySessions) Take(id domain.SessionID, now time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.tombstones[id]; ok && now.Before(exp) {
		return Session{}, domain.ErrSessionReplay
	}
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, domain.ErrSessionExpiredOrUnknown
	}
	delete(m.sessions, id)
	if !now.Before(s.ExpiresAt) {
		return Session{}, domain.ErrSessionExpiredOrUnknown
	}
	m.tombstones[id] = s.ExpiresAt
	return s, nil
}

// Len returns the number of live sessions.
func (m *MemorySessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions and tombstones that expired before now and returns
// how many sessions were dropped.
func (m *MemorySessions) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now)
}

func (m *MemorySessions) sweepLocked(now time.Time) int {
	n := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	for id, exp := range m.tombstones {
		if !now.Before(exp) {
			delete(m.tombstones, id)
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *MemorySessions) Run(ctx context.Context, interval time.Duration, now func() time.Time) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep(now())
		}
	}
}

var _ SessionStore = (*MemorySessions)(nil)
