package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SubmitLimiter throttles event submissions per authenticated user. A
// bucket idle for longer than it takes to refill is indistinguishable from a
// new one, so such buckets are evicted and the map only holds recently
// active users.
type SubmitLimiter struct {
	mu        sync.Mutex
	limiters  map[uuid.UUID]*userLimiter
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type userLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

const minLimiterIdle = time.Minute

func NewSubmitLimiter(perSecond float64, burst int) *SubmitLimiter {
	idle := minLimiterIdle
	if perSecond > 0 {
		if refill := time.Duration(float64(burst) / perSecond * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &SubmitLimiter{
		limiters: make(map[uuid.UUID]*userLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
	}
}

func (l *SubmitLimiter) limiter(userID uuid.UUID) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	lim, ok := l.limiters[userID]
	if !ok {
		lim = &userLimiter{Limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = lim
	}
	lim.lastSeen = now
	return lim.Limiter
}

// sweep drops buckets unused for the idle period. Callers hold l.mu.
func (l *SubmitLimiter) sweep(now time.Time) {
	for id, lim := range l.limiters {
		if now.Sub(lim.lastSeen) >= l.idle {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}

func (l *SubmitLimiter) Allow(userID uuid.UUID) bool {
	return l.limiter(userID).AllowN(l.now(), 1)
}

// Handler rejects requests over the limit with 429. Requests without a user
// share the uuid.Nil bucket.
func (l *SubmitLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserIDFromContext(r.Context())
		if !l.Allow(userID) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many event submissions, slow down", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
