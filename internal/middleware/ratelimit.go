package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleEviction = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per client IP and evicts buckets
// that have been idle for a while.
type limiterPool struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	pool := &limiterPool{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go pool.evictLoop()
	return pool
}

func (p *limiterPool) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[ip]; ok {
		c.lastSeen = time.Now()
		return c.limiter
	}
	l := rate.NewLimiter(p.rps, p.burst)
	p.clients[ip] = &clientLimiter{limiter: l, lastSeen: time.Now()}
	return l
}

func (p *limiterPool) evictLoop() {
	for {
		time.Sleep(time.Minute)
		p.mu.Lock()
		for ip, c := range p.clients {
			if time.Since(c.lastSeen) > limiterIdleEviction {
				delete(p.clients, ip)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimit returns a middleware limiting each client IP to rps requests
// per second with the given burst.
func RateLimit(rps float64, burst int) Middleware {
	pool := newLimiterPool(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.get(ClientIP(r)).Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
