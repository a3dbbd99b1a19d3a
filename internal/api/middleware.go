package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/platform/observability"
)

// HTTP header constants.
const (
	headerContentType  = "Content-Type"
	headerRequestID    = "X-Request-ID"
	headerAllowOrigin  = "Access-Control-Allow-Origin"
	headerAllowHeaders = "Access-Control-Allow-Headers"
	headerAllowMethods = "Access-Control-Allow-Methods"

	allowedHeaders = "authorization, x-client-info, apikey, content-type"
	allowedMethods = "POST, OPTIONS"

	maxRequestIDLength = 128
)

// Rate limiting defaults.
const (
	defaultRateLimitPerMin = 30
	defaultRateLimitBurst  = 10
	defaultLimiterIdleTTL  = 10 * time.Minute
	rateLimitWindow        = time.Minute
)

// Log field constants.
const (
	logKeyRequestID = "request_id"
	logKeyEndpoint  = "endpoint"
	logKeyStatus    = "status"
	logKeyClientIP  = "client_ip"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		observability.HTTPRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		observability.HTTPRequests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	})
}

// withRequestID attaches a request-scoped logger carrying the request ID.
func (h *Handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		w.Header().Set(headerRequestID, id)

		logger := h.logger.With().Str(logKeyRequestID, id).Str(logKeyEndpoint, r.URL.Path).Logger()

		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

func (h *Handler) withCORS(next http.Handler) http.Handler {
	origin := h.cfg.CORSAllowOrigin
	if origin == "" {
		origin = "*"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerAllowOrigin, origin)
		w.Header().Set(headerAllowHeaders, allowedHeaders)
		w.Header().Set(headerAllowMethods, allowedMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) withRateLimit(field resultField, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r, h.cfg.TrustProxyHeaders)
		if !h.allowRequest(ip) {
			zerolog.Ctx(r.Context()).Warn().Str(logKeyClientIP, ip).Msg("Rate limit exceeded")
			writeError(w, r, http.StatusTooManyRequests, apperrors.ErrTooManyRequests, field)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) postOnly(field resultField, fn endpointFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", allowedMethods)
			writeError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("method %s is not allowed", r.Method), field)

			return
		}

		fn(w, r, field)
	})
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (h *Handler) allowRequest(ip string) bool {
	perMin := h.cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = defaultRateLimitPerMin
	}

	burst := h.cfg.RateLimitBurst
	if burst <= 0 {
		burst = defaultRateLimitBurst
	}

	now := h.now()

	h.limitersMu.Lock()

	h.sweepLimiters(now)

	entry, ok := h.limiters[ip]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rate.Every(rateLimitWindow/time.Duration(perMin)), burst)}
		h.limiters[ip] = entry
	}

	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)

	h.limitersMu.Unlock()

	return allowed
}

// sweepLimiters drops limiters idle for longer than the configured TTL.
// It runs at most once per TTL. Callers hold limitersMu.
func (h *Handler) sweepLimiters(now time.Time) {
	ttl := h.cfg.RateLimitIdleTTL
	if ttl <= 0 {
		ttl = defaultLimiterIdleTTL
	}

	if now.Sub(h.lastSweep) < ttl {
		return
	}

	h.lastSweep = now

	for ip, entry := range h.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(h.limiters, ip)
		}
	}
}

// getClientIP returns the peer address. Forwarded headers are client
// controlled and are read only behind a trusted reverse proxy.
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
