package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the bucket count above which idle buckets are pruned.
	cleanupThreshold = 500
	// maxIdleAge is how long a bucket may stay idle before it is pruned.
	maxIdleAge = 10 * time.Minute
)

// chartKey scopes a budget to one client rendering one group's charts.
type chartKey struct {
	client  string
	groupID string
}

type chartBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ChartLimiter budgets chart renders per client and group. Renders are the
// only expensive read, so a client browsing one group's charts does not
// lock it out of another group.
type ChartLimiter struct {
	buckets   map[chartKey]*chartBucket
	mu        sync.Mutex
	perMinute int
	now       func() time.Time
}

// NewChartLimiter allows perMinute renders per minute per client and group,
// with a burst of perMinute.
func NewChartLimiter(perMinute int) *ChartLimiter {
	return &ChartLimiter{
		buckets:   make(map[chartKey]*chartBucket),
		perMinute: max(perMinute, 1),
		now:       time.Now,
	}
}

// Reserve takes one render from the client's budget for groupID. When the
// budget is spent it returns false and how long until the next render fits.
func (l *ChartLimiter) Reserve(client, groupID string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.buckets) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, k)
			}
		}
	}

	key := chartKey{client: client, groupID: groupID}
	b, ok := l.buckets[key]
	if !ok {
		b = &chartBucket{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60), l.perMinute)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Middleware rejects renders over budget with 429 and a Retry-After header.
// It must sit under a route carrying the groupID parameter.
func (l *ChartLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Reserve(clientIP(r), chi.URLParam(r, "groupID"))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
