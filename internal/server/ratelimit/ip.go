package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPLimiter is a per-client-IP token bucket. Idle buckets are dropped
// after five minutes.
type IPLimiter struct {
	limit   rate.Limit
	burst   int
	window  time.Duration
	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter allows requestsPerMinute per IP with a burst of a tenth of
// that. A non-positive budget disables limiting and returns nil.
func NewIPLimiter(requestsPerMinute int) *IPLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		window:  5 * time.Minute,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Handler returns gin middleware answering 429 once the caller's bucket is
// empty. A nil limiter passes everything through.
func (r *IPLimiter) Handler() gin.HandlerFunc {
	if r == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if !r.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"errors": gin.H{common.NonFieldErrors: []string{"Too many requests. Please slow down."}},
			})
			return
		}
		c.Next()
	}
}

func (r *IPLimiter) allow(key string) bool {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst), lastSeen: now}
		r.clients[key] = entry
		r.cleanupLocked(now)
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (r *IPLimiter) cleanupLocked(now time.Time) {
	for key, entry := range r.clients {
		if now.Sub(entry.lastSeen) > r.window {
			delete(r.clients, key)
		}
	}
}
