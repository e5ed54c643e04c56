// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP. Stale entries are
// evicted so the map does not grow unbounded.
type IPRateLimiter struct {
	clients map[string]*client
	mtx     sync.Mutex
	rate    rate.Limit
	burst   int
}

func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		clients: make(map[string]*client),
		rate:    r,
		burst:   burst,
	}

	go rl.evictStale()

	return rl
}

func (rl *IPRateLimiter) evictStale() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mtx.Lock()
		for ip, c := range rl.clients {
			if time.Since(c.lastSeen) > 3*time.Minute {
				delete(rl.clients, ip)
			}
		}
		rl.mtx.Unlock()
	}
}

func (rl *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.clients[ip] = &client{limiter, time.Now()}
		return limiter
	}

	c.lastSeen = time.Now()
	return c.limiter
}

func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many requests. Please try again later.",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Route tiers. Auth endpoints are throttled hard against credential
// stuffing; uploads cover thumbnails and assignment submissions.
var (
	generalLimiter = NewIPRateLimiter(rate.Every(time.Second), 10)
	authLimiter    = NewIPRateLimiter(rate.Every(time.Minute), 5)
	uploadLimiter  = NewIPRateLimiter(rate.Every(time.Minute), 10)
)

func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.Middleware()
}

func AuthRateLimit() gin.HandlerFunc {
	return authLimiter.Middleware()
}

func UploadRateLimit() gin.HandlerFunc {
	return uploadLimiter.Middleware()
}
