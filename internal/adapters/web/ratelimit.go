package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter is a per-client-IP token bucket for sign-in attempts.
// A nil *loginLimiter allows everything.
type loginLimiter struct {
	mu       sync.Mutex
	perMin   int
	visitors map[string]*visitor
	now      func() time.Time
}

// newLoginLimiter allows perMinute attempts per IP with an equal burst.
// Zero disables the limit.
func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &loginLimiter{perMin: perMinute, visitors: make(map[string]*visitor), now: time.Now}
}

func (l *loginLimiter) allow(ip string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.visitors[ip] = v
	}
	now := l.now()
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// purge drops visitors idle for longer than limiterIdleTTL.
func (l *loginLimiter) purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-limiterIdleTTL)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// startPurge launches a background goroutine that evicts idle visitors until ctx is done.
func (l *loginLimiter) startPurge(ctx context.Context) {
	if l == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(limiterIdleTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.purge()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// clientIP is the remote address without its port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
