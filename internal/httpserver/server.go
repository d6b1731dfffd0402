// internal/httpserver/server.go
//
// HTTP server wiring for the companion backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: /api/health, /api/game-state, /api/ws.
//   - Mutation routes for players, planets, cards, objectives, factions.
//   - Host auth + host-gated administrative routes.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so host cookies work).
//   - Every mutating handler returns the authoritative new state of the
//     entities it touched and broadcasts that same payload over the hub.

package httpserver

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ti4table/companion/internal/store"
	"github.com/ti4table/companion/internal/ws"
)

// Server bundles router, store, and broadcast hub.
type Server struct {
	r     *chi.Mux
	store *store.Store
	hub   *ws.Hub
}

// New constructs a Server, installs middleware, and registers routes.
func New(st *store.Store, hub *ws.Hub) *Server {
	s := &Server{r: chi.NewRouter(), store: st, hub: hub}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(corsFromEnv)     // credentials-friendly CORS

	s.r.Route("/api", func(r chi.Router) {
		// The websocket endpoint lives outside the timeout group: its
		// connections are long-lived and the context cancellation from
		// chimw.Timeout would sever them after the deadline.
		r.Get("/ws", s.hub.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

			// --- diagnostics ---
			r.Get("/health", s.handleHealth)
			r.Get("/game-state", s.handleGameState)
			r.Get("/debug/decks", s.handleDeckCounts)

			s.mountPlayerRoutes(r)
			s.mountPlanetRoutes(r)
			s.mountCardRoutes(r)
			s.mountObjectiveRoutes(r)
			s.mountHostRoutes(r)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// handleHealth answers the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Server is up and running!"})
}

// handleGameState returns the full snapshot.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.GameState(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleDeckCounts reports remaining deck sizes.
func (s *Server) handleDeckCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.DeckCounts(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
