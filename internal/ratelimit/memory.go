package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a per-process fixed window limiter.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]

	if !ok || now.After(b.windowEnd) {
		m.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(m.window),
		}
		m.sweep(now)

		return Decision{Allowed: true}, nil
	}

	if b.count >= m.limit {
		retryAfter := b.windowEnd.Sub(now)

		if retryAfter < 0 {
			retryAfter = 0
		}

		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	b.count++

	return Decision{Allowed: true}, nil
}

// sweep drops expired buckets so idle clients do not accumulate. Caller holds mu.
func (m *Memory) sweep(now time.Time) {
	if len(m.clients) < 1024 {
		return
	}

	for k, b := range m.clients {
		if now.After(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}
