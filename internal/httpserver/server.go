// internal/httpserver/server.go
//
// HTTP server wiring for the Emoji World backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, timeouts, JSON, CORS).
//   - Diagnostics: "/", "/health".
//   - Public reads: GET /api/players, GET /api/chat, GET /api/stats, POST /api/cleanup.
//   - Authenticated writes: POST /api/player/position, POST /api/player/logout, POST /api/chat.
//   - JSON 404/405 for unmatched routes.
//
// Notes:
//   - Auth runs as route middleware, so an unauthenticated write is rejected
//     before its body is read and before any store access.
//   - Each handler performs exactly one registry/chat/stats operation.
//   - Read endpoints answer 500 with an empty/zeroed body on store failure;
//     write endpoints answer 500 with an error code. Raw store errors are
//     only logged.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/auth"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/chat"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/presence"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/stats"
)

// endpoints is advertised by "/" and by the 404 handler.
var endpoints = []string{
	"GET /health",
	"GET /api/players",
	"POST /api/player/position",
	"POST /api/player/logout",
	"GET /api/chat",
	"POST /api/chat",
	"POST /api/cleanup",
	"GET /api/stats",
}

// Deps are the collaborators a Server needs. All are constructed once in main.
type Deps struct {
	Players       *presence.Registry
	Chat          *chat.Log
	Stats         *stats.Aggregator
	Verifier      *auth.Verifier
	PlayerTimeout time.Duration
	ClientOrigin  string
	Version       string
	Now           game.Clock
}

// Server bundles the router and the facades it dispatches to.
type Server struct {
	r       *chi.Mux
	players *presence.Registry
	chat    *chat.Log
	stats   *stats.Aggregator
	timeout time.Duration
	version string
	now     game.Clock
	started time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Now == nil {
		d.Now = game.SystemClock
	}
	if d.PlayerTimeout <= 0 {
		d.PlayerTimeout = game.DefaultPlayerTimeout
	}
	s := &Server{
		r:       chi.NewRouter(),
		players: d.Players,
		chat:    d.Chat,
		stats:   d.Stats,
		timeout: d.PlayerTimeout,
		version: d.Version,
		now:     d.Now,
		started: d.Now(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped zerolog logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(d.ClientOrigin))            // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "emojiworld-go",
			"version":   s.version,
			"endpoints": endpoints,
		})
	})
	s.r.Get("/health", s.handleHealth)

	// --- players ---
	s.r.Get("/api/players", s.handleListPlayers)
	s.r.With(d.Verifier.RequireAuth).Post("/api/player/position", s.handlePosition)
	s.r.With(d.Verifier.RequireAuth).Post("/api/player/logout", s.handleLogout)
	s.r.Post("/api/cleanup", s.handleCleanup)

	// --- chat ---
	s.r.Get("/api/chat", s.handleListChat)
	s.r.With(d.Verifier.RequireAuth).Post("/api/chat", s.handleSendChat)

	// --- stats ---
	s.r.Get("/api/stats", s.handleStats)

	// JSON 404/405 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":     "not_found",
			"path":      r.URL.Path,
			"endpoints": endpoints,
		})
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error":  "method_not_allowed",
			"method": r.Method,
			"path":   r.URL.Path,
		})
	})

	return s
}

// Handler exposes the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one structured line per request.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("requestId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})
