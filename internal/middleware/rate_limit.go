package middleware

import (
	"net/http"
	"sync"
	"time"

	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter holds one token bucket per key. Buckets idle for longer
// than the ttl are dropped on the next sweep.
type KeyedRateLimiter struct {
	mu        sync.Mutex
	keys      map[string]*keyedLimiter
	r         rate.Limit // jumlah request per detik
	b         int        // burst (kapasitas kantong)
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		keys: make(map[string]*keyedLimiter),
		r:    r,
		b:    b,
		ttl:  limiterIdleTTL,
		now:  time.Now,
	}
}

func (l *KeyedRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		for k, v := range l.keys {
			if now.Sub(v.lastSeen) >= l.ttl {
				delete(l.keys, k)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.keys[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.keys[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// Len reports how many buckets are currently tracked.
func (l *KeyedRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func RateLimitByIP(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			response.Abort(c, http.StatusTooManyRequests, apperror.CodeTooManyRequests, "Too many requests from this IP")
			return
		}
		c.Next()
	}
}

// RateLimitByUser: r = request per detik, b = burst.
// Buckets are per company so the same user id in two tenants never shares one.
func RateLimitByUser(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b)
	return func(c *gin.Context) {
		userID := c.GetString(string(ContextUserID))
		if userID == "" {
			c.Next() // belum login, biar auth yang menolak
			return
		}
		key := c.GetString(string(ContextCompanyID)) + ":" + userID
		if !limiter.Allow(key) {
			response.Abort(c, http.StatusTooManyRequests, apperror.CodeTooManyRequests, "Too many requests from this user")
			return
		}
		c.Next()
	}
}
