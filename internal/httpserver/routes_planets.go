// internal/httpserver/routes_planets.go
//
// Planet routes: catalog listing, whole-set assignment, tapped toggling,
// exploration, and attachments.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ti4table/companion/internal/store"
)

// mountPlanetRoutes registers planet and exploration routes.
func (s *Server) mountPlanetRoutes(r chi.Router) {
	r.Get("/planets", s.handleListPlanets)
	r.Get("/planet-attachments", s.handleListAttachments)
	r.Get("/attach-cards", s.handleListAttachTypeCards)
	r.Post("/player/assign-planets", s.handleAssignPlanets)
	r.Post("/player/update-tapped", s.handleUpdateTapped)
	r.Post("/explore-planet", s.handleExplorePlanet)
	r.Post("/planet/attach-cards", s.attachmentsHandler(true))
	r.Post("/planet/detach-cards", s.attachmentsHandler(false))
}

// handleListPlanets returns the planet catalog.
func (s *Server) handleListPlanets(w http.ResponseWriter, r *http.Request) {
	planets, err := s.store.ListPlanets(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planets)
}

// assignPlanetsReq is the payload for POST /api/player/assign-planets.
type assignPlanetsReq struct {
	PlayerID  *string `json:"playerId"`
	PlanetIDs *[]int  `json:"planetIds"`
}

// planetsAssigned is the response and broadcast payload for a set replacement.
type planetsAssigned struct {
	PlayerID string `json:"playerId"`
	Planets  any    `json:"planets"`
}

// handleAssignPlanets replaces the player's entire planet set in one
// transaction. Requested planet IDs are not validated against the catalog.
func (s *Server) handleAssignPlanets(w http.ResponseWriter, r *http.Request) {
	var req assignPlanetsReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.PlanetIDs == nil {
		writeErr(w, r, errValidation("playerId and planetIds are required"))
		return
	}
	planets, err := s.store.AssignPlanets(r.Context(), *req.PlayerID, *req.PlanetIDs)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := planetsAssigned{PlayerID: *req.PlayerID, Planets: planets}
	s.hub.Broadcast("planets-assigned", out)
	writeJSON(w, http.StatusOK, out)
}

// tappedReq is the payload for POST /api/player/update-tapped.
type tappedReq struct {
	PlayerID *string `json:"playerId"`
	PlanetID *int    `json:"planetId"`
	Tapped   *bool   `json:"tapped"`
}

// handleUpdateTapped flips the tapped flag on one controlled planet.
// Idempotent: repeating the call yields the same final state.
func (s *Server) handleUpdateTapped(w http.ResponseWriter, r *http.Request) {
	var req tappedReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.PlanetID == nil || req.Tapped == nil {
		writeErr(w, r, errValidation("playerId, planetId and tapped are required"))
		return
	}
	pp, err := s.store.UpdatePlanetTapped(r.Context(), *req.PlayerID, *req.PlanetID, *req.Tapped)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := map[string]any{"playerId": *req.PlayerID, "planet": pp}
	s.hub.Broadcast("planet-tapped", out)
	writeJSON(w, http.StatusOK, out)
}

// exploreReq is the payload for POST /api/explore-planet.
type exploreReq struct {
	PlayerID *string `json:"playerId"`
	PlanetID *int    `json:"planetId"`
}

// handleExplorePlanet draws from the terrain deck matching the planet and
// resolves the card (attach to planet, or into the player's hand).
// 404 when the planet is unknown or its terrain deck is empty.
func (s *Server) handleExplorePlanet(w http.ResponseWriter, r *http.Request) {
	var req exploreReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.PlanetID == nil {
		writeErr(w, r, errValidation("playerId and planetId are required"))
		return
	}
	res, err := s.store.ExplorePlanet(r.Context(), *req.PlayerID, *req.PlanetID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("planet-explored", res)
	writeJSON(w, http.StatusOK, res)
}

// attachmentsReq is the payload shared by the manual attach/detach routes.
type attachmentsReq struct {
	PlanetID *int   `json:"planetId"`
	CardIDs  *[]int `json:"cardIds"`
}

// attachmentsHandler builds the manual attach or detach handler. Both respond
// with the planet's full attachment list after the change and broadcast it as
// "attachments-updated".
func (s *Server) attachmentsHandler(attach bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attachmentsReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		if req.PlanetID == nil || req.CardIDs == nil {
			writeErr(w, r, errValidation("planetId and cardIds are required"))
			return
		}

		var out *store.AttachmentUpdate
		var err error
		if attach {
			out, err = s.store.AttachCards(r.Context(), *req.PlanetID, *req.CardIDs)
		} else {
			out, err = s.store.DetachCards(r.Context(), *req.PlanetID, *req.CardIDs)
		}
		if err != nil {
			writeErr(w, r, err)
			return
		}
		s.hub.Broadcast("attachments-updated", out)
		writeJSON(w, http.StatusOK, out)
	}
}

// handleListAttachTypeCards returns every card that can be manually attached.
func (s *Server) handleListAttachTypeCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListAttachTypeCards(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// handleListAttachments returns the cards fixed to ?planetId=.
func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	planetID, err := strconv.Atoi(r.URL.Query().Get("planetId"))
	if err != nil {
		writeErr(w, r, errValidation("planetId query parameter is required"))
		return
	}
	atts, err := s.store.ListAttachments(r.Context(), planetID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, atts)
}
