package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"careercoach/internal/errors"
	"careercoach/internal/observability"

	"golang.org/x/time/rate"
)

// clientBucket is the generation budget of one client
type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter meters generation requests per client. Interview questions and
// learning paths draw from the same bucket since both hit the AI backend.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	rate    rate.Limit
	burst   int
	idleTTL time.Duration
	done    chan struct{}
	once    sync.Once
	logger  *errors.Logger
}

// NewRateLimiter allows requestsPerMin per client with the given burst
func NewRateLimiter(requestsPerMin int, burstCapacity int, logger *errors.Logger) *RateLimiter {
	m := &RateLimiter{
		buckets: make(map[string]*clientBucket),
		rate:    rate.Every(time.Minute / time.Duration(max(requestsPerMin, 1))),
		burst:   burstCapacity,
		idleTTL: 10 * time.Minute,
		done:    make(chan struct{}),
		logger:  logger,
	}

	go m.evictIdle()
	return m
}

func (m *RateLimiter) bucket(key string, now time.Time) *clientBucket {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.buckets[key] = b
	}
	b.seen = now
	return b
}

// Reserve takes one token for key. When the bucket is empty it returns false
// and how long the client should wait before retrying.
func (m *RateLimiter) Reserve(key string) (bool, time.Duration) {
	now := time.Now()
	r := m.bucket(key, now).limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Allow reports whether one more request for key fits in its bucket
func (m *RateLimiter) Allow(key string) bool {
	ok, _ := m.Reserve(key)
	return ok
}

// GetStats returns current rate limiter statistics
func (m *RateLimiter) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.buckets),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *RateLimiter) evictIdle() {
	ticker := time.NewTicker(m.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(m.idleTTL)
		case <-m.done:
			return
		}
	}
}

// cleanup drops buckets not used within maxIdle
func (m *RateLimiter) cleanup(maxIdle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	evicted := 0
	for key, b := range m.buckets {
		if !b.seen.After(cutoff) {
			delete(m.buckets, key)
			evicted++
		}
	}

	if m.logger != nil && evicted > 0 {
		m.logger.Debug("Evicted idle generation buckets", "evicted", evicted, "remaining", len(m.buckets))
	}
}

// Close stops the eviction goroutine
func (m *RateLimiter) Close() {
	m.once.Do(func() { close(m.done) })
}

// rateLimitMiddleware answers 429 once a client exhausts its generation budget
func (s *Server) rateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			ok, wait := s.RateLimiter.Reserve(clientIP)
			if !ok {
				retryAfter := int(math.Ceil(wait.Seconds()))
				s.Logger.Info("Generation budget exhausted",
					"route", r.Pattern,
					"client_ip", clientIP,
					"retry_after_s", retryAfter,
					"request_id", requestIDFrom(r.Context()))
				om.RecordRateLimitHit(r.Context(), r.Pattern)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				s.renderError(w, r, http.StatusTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
				return
			}

			next(w, r)
		}
	}
}

// getClientIP prefers proxy headers and falls back to the peer address
func getClientIP(r *http.Request) string {
	for ip := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if ip = strings.TrimSpace(ip); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
