package limiter

import (
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a fixed-window in-memory limiter. Entries are created lazily on
// a client's first request and reset in place once the window passes; there
// is no durable state. The map is guarded by a single mutex so concurrent
// bursts from one client never lose increments.
type Memory struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	clients map[string]*window
	now     func() time.Time
}

// NewMemory constructs an in-memory limiter. Non-positive max/window fall
// back to the defaults.
func NewMemory(max int, windowSize time.Duration) *Memory {
	if max <= 0 {
		max = DefaultMax
	}
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	return &Memory{
		max:     max,
		window:  windowSize,
		clients: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow admits up to max requests per client per window. The first request
// after the window elapses resets the counter to 1.
func (m *Memory) Allow(clientID string) (bool, time.Duration) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.clients[clientID]
	if !ok || now.After(w.resetAt) {
		m.clients[clientID] = &window{count: 1, resetAt: now.Add(m.window)}
		return true, 0
	}
	if w.count >= m.max {
		return false, w.resetAt.Sub(now)
	}
	w.count++
	return true, 0
}

// Reset drops the window for a client. Used by tests and admin tooling.
func (m *Memory) Reset(clientID string) {
	m.mu.Lock()
	delete(m.clients, clientID)
	m.mu.Unlock()
}

// Sweep removes expired windows to keep the map bounded on long-running
// processes with high client churn.
func (m *Memory) Sweep() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range m.clients {
		if now.After(w.resetAt) {
			delete(m.clients, id)
		}
	}
}
