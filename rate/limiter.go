// Package rate provides a per-client token bucket with idle eviction.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	expiry  time.Duration
	burst   int
	limit   rate.Limit
	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter builds a limiter that refills one token every interval,
// holds at most burst tokens per client, and forgets clients idle for
// longer than expiryMinutes.
func NewLimiter(burst int, expiryMinutes int, interval time.Duration) *Limiter {
	l := &Limiter{
		expiry:  time.Duration(expiryMinutes) * time.Minute,
		burst:   burst,
		limit:   rate.Every(interval),
		clients: make(map[string]*client),
	}
	go l.evict()
	return l
}

// Check consumes one token for id, reporting whether the call is allowed.
func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[id]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[id] = cl
	}

	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

func (l *Limiter) evict() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		for id, cl := range l.clients {
			if time.Since(cl.lastSeen) > l.expiry {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}
