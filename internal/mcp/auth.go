package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultMaxBodyBytes int64 = 1 << 20 // 1 MiB

// HTTPHandlerConfig carries the hardening knobs for the streamable HTTP
// endpoint: the shared desk token, the per-client call budget, and the
// request body cap.
type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

// wrapHTTPHandler layers body capping, per-client throttling, and bearer
// auth around the transport, auth checked first.
func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	h := withBodyLimit(base, cfg.MaxBodyBytes)
	h = withRateLimit(h, newClientLimiters(cfg.RateLimitPerMin))
	h = withBearerAuth(h, cfg.AuthToken)
	return h
}

func withBearerAuth(next http.Handler, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided, ok := bearerToken(r)
		if !ok {
			writeTransportFailure(w, http.StatusUnauthorized, "auth", "missing bearer token")
			return
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			writeTransportFailure(w, http.StatusForbidden, "auth", "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return token, token != ""
}

func withBodyLimit(next http.Handler, limit int64) http.Handler {
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

func withRateLimit(next http.Handler, limiters *clientLimiters) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiters == nil {
			next.ServeHTTP(w, r)
			return
		}
		if !limiters.Allow(clientKey(r)) {
			writeTransportFailure(w, http.StatusTooManyRequests, "rate_limit", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey combines the bearer token with the remote host so one leaked
// token cannot exhaust the budget of every caller behind it.
func clientKey(r *http.Request) string {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		host = "unknown"
	}
	if token == "" {
		return host
	}
	return token + "|" + host
}

// clientLimiters hands out one token bucket per caller. Buckets refill at
// the configured per-minute rate and allow a full minute's burst.
type clientLimiters struct {
	mu      sync.Mutex
	refill  rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newClientLimiters(perMin int) *clientLimiters {
	if perMin <= 0 {
		perMin = 60
	}
	return &clientLimiters{
		refill:  rate.Limit(float64(perMin) / 60.0),
		burst:   perMin,
		clients: make(map[string]*rate.Limiter),
	}
}

func (c *clientLimiters) Allow(key string) bool {
	if c == nil {
		return true
	}
	if key == "" {
		key = "anonymous"
	}

	c.mu.Lock()
	lim, ok := c.clients[key]
	if !ok {
		lim = rate.NewLimiter(c.refill, c.burst)
		c.clients[key] = lim
	}
	c.mu.Unlock()

	return lim.Allow()
}

// writeTransportFailure mirrors the tool envelope so HTTP-level
// rejections parse the same way as in-band tool failures.
func writeTransportFailure(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"error":      message,
		"error_type": errType,
	})
}
