package limits

import (
	"net"
	"net/http"
	"strings"
	"sync"
)

// ConnectionLimiter limits concurrent connections per client IP.
type ConnectionLimiter struct {
	maxPerIP int

	mu    sync.Mutex
	count map[string]int
}

// NewConnectionLimiter creates a limiter. A non-positive maxPerIP means no
// limit.
func NewConnectionLimiter(maxPerIP int) *ConnectionLimiter {
	return &ConnectionLimiter{maxPerIP: maxPerIP, count: make(map[string]int)}
}

// Acquire takes a slot for ip. It reports false when the limit is reached.
func (cl *ConnectionLimiter) Acquire(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.maxPerIP > 0 && cl.count[ip] >= cl.maxPerIP {
		return false
	}
	cl.count[ip]++
	return true
}

// Release returns a slot taken by Acquire.
func (cl *ConnectionLimiter) Release(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.count[ip] <= 1 {
		delete(cl.count, ip)
		return
	}
	cl.count[ip]--
}

// Count returns the open connections for ip.
func (cl *ConnectionLimiter) Count(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.count[ip]
}

// Middleware rejects requests with 429 while the client holds too many
// connections.
func (cl *ConnectionLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetClientIP(r)
			if !cl.Acquire(ip) {
				http.Error(w, "Too Many Connections", http.StatusTooManyRequests)
				return
			}
			defer cl.Release(ip)
			next.ServeHTTP(w, r)
		})
	}
}

// GetClientIP extracts the client IP from an HTTP request.
// Checks X-Forwarded-For and X-Real-IP headers, falling back to RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
