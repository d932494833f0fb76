package stubserver

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
)

// defaultEvictionWindow is how long a client can stay idle before its
// limiter is evicted
const defaultEvictionWindow = 10 * time.Minute

// RateLimiter manages a collection of token-bucket limiters keyed by
// client identity (IP address or API key)
type RateLimiter struct {
	mu             sync.Mutex
	limiters       map[string]*rate.Limiter
	lastSeen       map[string]time.Time
	rate           rate.Limit
	burst          int
	evictionWindow time.Duration
	done           chan struct{}
	logger         *errors.Logger
}

// NewRateLimiter creates a new limiter manager.
// requestsPerMin is the number of requests allowed per minute;
// burstCapacity is the token bucket size; evictionWindow is how long
// an idle client keeps its limiter (non-positive values fall back to
// the default).
func NewRateLimiter(requestsPerMin, burstCapacity int, evictionWindow time.Duration, logger *errors.Logger) *RateLimiter {
	if evictionWindow <= 0 {
		evictionWindow = defaultEvictionWindow
	}

	m := &RateLimiter{
		limiters:       make(map[string]*rate.Limiter),
		lastSeen:       make(map[string]time.Time),
		rate:           rate.Limit(float64(requestsPerMin) / 60.0),
		burst:          burstCapacity,
		evictionWindow: evictionWindow,
		done:           make(chan struct{}),
		logger:         logger,
	}

	go m.cleanupRoutine(evictionWindow)
	return m
}

// Allow checks if a request should be allowed for the given key.
// Allow() on the underlying limiter is non-blocking.
func (m *RateLimiter) Allow(key string) bool {
	m.mu.Lock()
	limiter, exists := m.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = limiter
	}
	m.lastSeen[key] = time.Now()
	m.mu.Unlock()

	return limiter.Allow()
}

// GetStats returns current rate limiter statistics
func (m *RateLimiter) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.limiters),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
		"eviction_window": m.evictionWindow.String(),
	}
}

// cleanupRoutine periodically removes limiters for clients that have
// gone quiet
func (m *RateLimiter) cleanupRoutine(evictionAge time.Duration) {
	ticker := time.NewTicker(evictionAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(evictionAge)
		case <-m.done:
			return
		}
	}
}

func (m *RateLimiter) cleanup(evictionAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, lastSeen := range m.lastSeen {
		if now.Sub(lastSeen) > evictionAge {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Rate limiter cleanup completed",
			"remaining_limiters", len(m.limiters))
	}
}

// Close stops the cleanup goroutine. Should be called when shutting
// down the server.
func (m *RateLimiter) Close() {
	close(m.done)
}

// rateLimitMiddleware applies per-client rate limiting
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rateLimitKey := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if rateLimitKey == "" {
				next(w, r)
				return
			}

			if !s.RateLimiter.Allow(rateLimitKey) {
				s.Logger.Info("Rate limit exceeded",
					"key", rateLimitKey,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey consolidates key extraction logic
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}
		if apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	// Fall back to RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}
	return ""
}
