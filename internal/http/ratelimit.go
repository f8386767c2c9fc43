package httpx

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig configures per-client rate limiting.
type LimiterConfig struct {
	// PerMinute is the sustained number of requests allowed per client.
	PerMinute float64
	// Burst is the bucket size.
	Burst int
	// CleanupInterval is how often idle client entries are dropped.
	CleanupInterval time.Duration
}

// DefaultLoginLimiterConfig allows 10 sign-in attempts per minute per client.
func DefaultLoginLimiterConfig() LimiterConfig {
	return LimiterConfig{PerMinute: 10, Burst: 5, CleanupInterval: 5 * time.Minute}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// ClientLimiter keeps one token bucket per client IP.
type ClientLimiter struct {
	limit  rate.Limit
	burst  int
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewClientLimiter starts a limiter and its background cleanup. Call Stop when done.
func NewClientLimiter(cfg LimiterConfig, logger *slog.Logger) *ClientLimiter {
	def := DefaultLoginLimiterConfig()
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = def.PerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := &ClientLimiter{
		limit:   rate.Limit(cfg.PerMinute / 60.0),
		burst:   cfg.Burst,
		ttl:     cfg.CleanupInterval * 2,
		logger:  logger,
		clients: make(map[string]*clientLimiter),
		stopCh:  make(chan struct{}),
	}
	go cl.cleanupLoop(cfg.CleanupInterval)
	return cl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (cl *ClientLimiter) Stop() {
	cl.stopOnce.Do(func() { close(cl.stopCh) })
}

// Allow reports whether the client may proceed now.
func (cl *ClientLimiter) Allow(client string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	entry, ok := cl.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[client] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter.Allow()
}

// Len returns the number of tracked clients.
func (cl *ClientLimiter) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.clients)
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
func (cl *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !cl.Allow(ip) {
			cl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("path", r.URL.Path),
			)
			cl.writeLimited(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (cl *ClientLimiter) writeLimited(w http.ResponseWriter) {
	retryAfter := int(math.Ceil(1.0 / float64(cl.limit)))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	WriteJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":   "rate_limited",
		"message": "Too many attempts. Please try again later.",
	})
}

func (cl *ClientLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cl.cleanup(time.Now())
		case <-cl.stopCh:
			return
		}
	}
}

func (cl *ClientLimiter) cleanup(now time.Time) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for ip, entry := range cl.clients {
		if now.Sub(entry.lastAccess) > cl.ttl {
			delete(cl.clients, ip)
		}
	}
}

// clientIP is the peer address. Forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
