package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultRatePerMinute is the per-client request budget when none is
// configured.
const DefaultRatePerMinute = 60

// ipLimiter hands out one token-bucket limiter per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newIPLimiter allows perMinute requests per client with an equal burst.
// perMinute <= 0 disables limiting entirely.
func newIPLimiter(perMinute int) *ipLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

func (l *ipLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[clientIP]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[clientIP] = lim
	}
	return lim.Allow()
}

// rateLimit enforces the per-IP budget. A nil limiter is a no-op.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
