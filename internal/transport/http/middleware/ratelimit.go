package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "movie-catalog/internal/transport/http/response"
	"movie-catalog/pkg/apperr"
)

type ipBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimitPerIP 每 IP 限速；闲置的桶定期清理
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	const idle = 3 * time.Minute
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*ipBucket)
		lastSweep = time.Now()
	)
	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for k, b := range buckets {
				if now.Sub(b.lastSeen) > idle {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[ip]
		if !ok {
			b = &ipBucket{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = b
		}
		b.lastSeen = now
		mu.Unlock()

		if wait, ok := allow(b.lim, now); !ok {
			tooManyRequests(c, wait)
			return
		}
		c.Next()
	}
}

// allow 不通过时返回需要等待的时长
func allow(lim *rate.Limiter, now time.Time) (time.Duration, bool) {
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return time.Second, false
	}
	d := r.DelayFrom(now)
	if d == 0 {
		return 0, true
	}
	r.CancelAt(now)
	return d, false
}

func tooManyRequests(c *gin.Context, wait time.Duration) {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	resp.Fail(c, apperr.TooManyRequests("too many requests").WithDetail("retryAfter", secs))
}
