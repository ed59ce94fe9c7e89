package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	wsadapter "missionctl/adapters/websocket"
	"missionctl/core"
	"missionctl/engine"
	"missionctl/realtime"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// donateRequest is the explicit schema for the donation endpoint.
type donateRequest struct {
	Amount *float64 `json:"amount"`
}

// NewMux builds an http.Handler exposing the mission REST API and WebSocket stream.
// Routes:
//   - GET  {prefix}/health
//   - GET  {prefix}/intern/{id}
//   - POST {prefix}/intern/{id}/donate
//   - GET  {prefix}/leaderboard
//   - GET  {prefix}/stats
//   - WS   {prefix}/ws
func NewMux(svc *engine.MissionService, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/health"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeRouteNotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "Mission Control Online",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   Version,
		})
	})

	// WebSocket events
	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/leaderboard"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeRouteNotFound(w, r)
			return
		}
		board, err := svc.Leaderboard(r.Context(), time.Now())
		if err != nil {
			writeInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"data":        board.Entries,
			"totalAgents": board.TotalAgents,
			"totalRaised": board.TotalRaised,
			"totalTrees":  board.TotalTrees,
		})
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/stats"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeRouteNotFound(w, r)
			return
		}
		summary, err := svc.Stats(r.Context())
		if err != nil {
			writeInternalError(w, err)
			return
		}
		writeSuccess(w, summary)
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/intern/"), func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, opts.PathPrefix)
		parts := split(path, '/')
		// parts[0] == "intern"
		switch {
		case len(parts) == 2 && r.Method == http.MethodGet:
			handleGetIntern(w, r, svc, core.InternID(parts[1]))
		case len(parts) == 3 && parts[2] == "donate" && r.Method == http.MethodPost:
			handleDonate(w, r, svc, core.InternID(parts[1]))
		default:
			writeRouteNotFound(w, r)
		}
	})

	// everything else is an unknown mission endpoint
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeRouteNotFound(w, r)
	})

	var handler http.Handler = mux
	handler = withRecovery(handler)
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

func handleGetIntern(w http.ResponseWriter, r *http.Request, svc *engine.MissionService, id core.InternID) {
	rec, err := svc.Intern(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Intern not found in mission database")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, rec)
}

func handleDonate(w http.ResponseWriter, r *http.Request, svc *engine.MissionService, id core.InternID) {
	var req donateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
		writeError(w, http.StatusBadRequest, "Invalid donation amount")
		return
	}
	res, err := svc.Donate(r.Context(), id, *req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "Invalid donation amount")
		case errors.Is(err, core.ErrRecordNotFound):
			writeError(w, http.StatusNotFound, "Intern not found")
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    res,
		"message": "Mission progress updated! Keep up the great work!",
	})
}

// Helpers

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	// trim leading '/'
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeRouteNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Mission endpoint not found",
		"message": fmt.Sprintf("The requested endpoint %s does not exist", r.URL.Path),
	})
}

// writeInternalError reports a generic failure without exposing internals
// beyond the message string.
func writeInternalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "Mission Control encountered an error",
		"message": err.Error(),
	})
}

// withRecovery converts handler panics into the generic error payload.
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeInternalError(w, fmt.Errorf("%v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing API key")
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a simple token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
