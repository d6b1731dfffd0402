// internal/httpserver/routes_host.go
//
// Host authentication and the administrative routes it gates.
// Hosts are the table organizers: they can delete planets from the catalog,
// create objectives, and reset the game between sessions. JWT + cookie
// handling mirrors the rest of the app's cookie conventions.

package httpserver

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ti4table/companion/internal/apperr"
)

// ctxHostKey is the context key type for storing the authenticated host.
type ctxHostKey struct{}

// hostIdentity is placed into request context by requireHost.
type hostIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// mountHostRoutes registers /host auth routes and the admin surface.
func (s *Server) mountHostRoutes(r chi.Router) {
	r.Route("/host", func(r chi.Router) {
		r.Post("/signup", s.handleHostSignup)
		r.Post("/login", s.handleHostLogin)
		r.Post("/logout", s.handleHostLogout)
		r.With(s.requireHost()).Get("/me", s.handleHostMe)
	})

	r.With(s.requireHost()).Delete("/planet/{id}", s.handleDeletePlanet)
	r.With(s.requireHost()).Post("/game/reset", s.handleGameReset)
}

// hostAuthReq is the payload for signup and login.
type hostAuthReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleHostSignup creates a host account, signs a JWT, and sets the cookie.
func (s *Server) handleHostSignup(w http.ResponseWriter, r *http.Request) {
	var req hostAuthReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	h, err := s.store.CreateHost(r.Context(), req.Username, req.Password)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	tok, exp, err := signJWT(h.ID, h.Username)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusCreated, map[string]any{"id": h.ID, "username": h.Username, "createdAt": h.CreatedAt})
}

// handleHostLogin authenticates a host and sets the cookie.
func (s *Server) handleHostLogin(w http.ResponseWriter, r *http.Request) {
	var req hostAuthReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	h, err := s.store.FindHostByUsername(r.Context(), req.Username)
	if err != nil || !h.CheckPassword(req.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := signJWT(h.ID, h.Username)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, map[string]any{"id": h.ID, "username": h.Username})
}

// handleHostLogout clears the auth cookie.
func (s *Server) handleHostLogout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleHostMe returns the authenticated host.
func (s *Server) handleHostMe(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxHostKey{}).(*hostIdentity)
	if me == nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, me)
}

// handleDeletePlanet removes a planet from the catalog (administrative).
func (s *Server) handleDeletePlanet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, apperr.Validation("planet id must be numeric"))
		return
	}
	if err := s.store.DeletePlanet(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	out := map[string]int{"planetId": id}
	s.hub.Broadcast("planet-deleted", out)
	writeJSON(w, http.StatusOK, out)
}

// handleGameReset clears all per-player state and refills the decks.
func (s *Server) handleGameReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	out := map[string]bool{"reset": true}
	s.hub.Broadcast("game-reset", out)
	writeJSON(w, http.StatusOK, out)
}

// ---------------------------- auth middleware ------------------------------

// requireHost enforces a valid JWT and injects the host identity into the
// request context.
func (s *Server) requireHost() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			username, _ := claims["username"].(string)
			if id == "" || username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure host still exists
			if _, err := s.store.FindHostByID(r.Context(), id); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxHostKey{}, &hostIdentity{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry
// (JWT_EXPIRES_DAYS; default 14).
func signJWT(id, username string) (string, time.Time, error) {
	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "companion_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "companion_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[len("bearer "):])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "companion_token")); err == nil {
		return c.Value
	}
	return ""
}
