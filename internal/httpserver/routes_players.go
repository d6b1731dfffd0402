// internal/httpserver/routes_players.go
//
// Player routes: registration, counter updates, victory points, faction
// selection. Counters are overwritten wholesale (last write wins); every
// mutation broadcasts the updated player row.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// mountPlayerRoutes registers the /player and /victory-points routes.
// All /player paths are flat registrations; routes_cards.go and
// routes_objectives.go add more under the same prefix, and chi rejects a
// second Route("/player") subrouter on the same mux.
func (s *Server) mountPlayerRoutes(r chi.Router) {
	r.Get("/players", s.handleListPlayers)
	r.Get("/factions", s.handleListFactions)

	r.Post("/player/join", s.handleJoin)
	r.Post("/player/update-resources", s.counterHandler("resources"))
	r.Post("/player/update-influence", s.counterHandler("influence"))
	r.Post("/player/update-commodities", s.counterHandler("commodities"))
	r.Post("/player/update-trade-goods", s.counterHandler("trade_goods"))
	r.Post("/player/select-faction", s.handleSelectFaction)

	r.Post("/victory-points/update", s.handleUpdateVictoryPoints)
}

// joinReq is the payload for POST /api/player/join.
type joinReq struct {
	Name string `json:"name"`
}

// handleJoin registers a new player with all counters zeroed.
// Duplicate names fail with 409.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	p, err := s.store.CreatePlayer(r.Context(), req.Name)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("player-joined", p)
	writeJSON(w, http.StatusCreated, p)
}

// handleListPlayers returns all registered players.
func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.ListPlayers(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// counterReq is the payload shared by all counter-overwrite routes.
type counterReq struct {
	PlayerID *string `json:"playerId"`
	Value    *int    `json:"value"`
}

// counterHandler builds a handler that overwrites one player counter column.
func (s *Server) counterHandler(column string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req counterReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		if req.PlayerID == nil || req.Value == nil {
			writeErr(w, r, errValidation("playerId and value are required"))
			return
		}
		p, err := s.store.UpdateCounter(r.Context(), *req.PlayerID, column, *req.Value)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		s.hub.Broadcast("player-updated", p)
		writeJSON(w, http.StatusOK, p)
	}
}

// vpReq is the payload for POST /api/victory-points/update.
type vpReq struct {
	PlayerID *string `json:"playerId"`
	Points   *int    `json:"points"`
}

// handleUpdateVictoryPoints overwrites a player's victory-point counter and
// broadcasts the updated player.
func (s *Server) handleUpdateVictoryPoints(w http.ResponseWriter, r *http.Request) {
	var req vpReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.Points == nil {
		writeErr(w, r, errValidation("playerId and points are required"))
		return
	}
	p, err := s.store.UpdateVictoryPoints(r.Context(), *req.PlayerID, *req.Points)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("victory-points-updated", p)
	writeJSON(w, http.StatusOK, p)
}

// factionReq is the payload for POST /api/player/select-faction.
type factionReq struct {
	PlayerID *string `json:"playerId"`
	Faction  *string `json:"faction"`
}

// handleSelectFaction records a faction choice. Nothing prevents two players
// picking the same faction.
func (s *Server) handleSelectFaction(w http.ResponseWriter, r *http.Request) {
	var req factionReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.Faction == nil {
		writeErr(w, r, errValidation("playerId and faction are required"))
		return
	}
	p, err := s.store.SelectFaction(r.Context(), *req.PlayerID, *req.Faction)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("faction-selected", p)
	writeJSON(w, http.StatusOK, p)
}

// handleListFactions returns the faction catalog.
func (s *Server) handleListFactions(w http.ResponseWriter, r *http.Request) {
	factions, err := s.store.ListFactions(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factions)
}
