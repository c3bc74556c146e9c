package web

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	mw "github.com/JonMunkholm/loanledger/internal/web/middleware"
)

// maxTrackedClients bounds the number of per-IP buckets held at once.
const maxTrackedClients = 10000

// ipLimiter keeps one token bucket per client IP. A bucket holds a minute's
// worth of requests and refills continuously. Idle buckets expire after
// two minutes, by which time they would be full again anyway.
type ipLimiter struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

func newIPLimiter(perMinute int) *ipLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &ipLimiter{
		buckets: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, 2*time.Minute),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
	}
}

// bucket returns the limiter for ip, creating it on first use. Every access
// pushes the bucket's expiry forward.
func (l *ipLimiter) bucket(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.buckets.Get(ip)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
	}
	l.buckets.Add(ip, lim)
	return lim
}

// reserve takes a token for ip. When none is available it returns false and
// the wait until the next one.
func (l *ipLimiter) reserve(ip string) (time.Duration, bool) {
	res := l.bucket(ip).Reserve()
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return delay, false
	}
	return 0, true
}

// middleware rate limits by client IP.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait, ok := l.reserve(mw.ClientIP(r)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
