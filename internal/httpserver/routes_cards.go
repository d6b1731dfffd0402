// internal/httpserver/routes_cards.go
//
// Card routes: strategy, action, relic, technology catalogs and ownership,
// the strategy-card trade-good counter, and the relic-fragment combination.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// mountCardRoutes registers all card-family routes.
func (s *Server) mountCardRoutes(r chi.Router) {
	r.Get("/strategy-cards", s.handleListStrategyCards)
	r.Post("/strategy-card/update-trade-goods", s.handleUpdateTradeGoods)
	r.Get("/action-cards", s.handleListActionCards)
	r.Get("/relics", s.handleListRelics)
	r.Get("/technologies", s.handleListTechnologies)
	r.Post("/technology/update-tapped", s.handleUpdateTechTapped)
	r.Post("/combine-relic-fragments", s.handleCombineRelicFragments)

	// Flat /player paths; see mountPlayerRoutes for why there is no
	// Route("/player") subrouter.
	r.Get("/player/hand", s.handlePlayerHand)
	r.Post("/player/assign-strategy-cards", s.assignCardsHandler("strategy"))
	r.Post("/player/assign-action-cards", s.assignCardsHandler("action"))
	r.Post("/player/assign-technologies", s.assignCardsHandler("technology"))
}

func (s *Server) handleListStrategyCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListStrategyCards(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleListActionCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListActionCards(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleListRelics(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListRelics(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleListTechnologies(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListTechnologies(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// tradeGoodsReq is the payload for POST /api/strategy-card/update-trade-goods.
type tradeGoodsReq struct {
	CardID    *int  `json:"cardId"`
	Increment *bool `json:"increment"`
}

// handleUpdateTradeGoods applies +1/-1 (floored at zero) to a strategy card's
// trade-good counter. The event name matches the original client contract.
func (s *Server) handleUpdateTradeGoods(w http.ResponseWriter, r *http.Request) {
	var req tradeGoodsReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.CardID == nil || req.Increment == nil {
		writeErr(w, r, errValidation("cardId and increment are required"))
		return
	}
	card, err := s.store.UpdateTradeGoods(r.Context(), *req.CardID, *req.Increment)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("tradeGoodUpdated", card)
	writeJSON(w, http.StatusOK, card)
}

// assignCardsReq is the payload shared by the set-replacement routes.
type assignCardsReq struct {
	PlayerID *string `json:"playerId"`
	CardIDs  *[]int  `json:"cardIds"`
}

// cardsAssigned is the response and broadcast payload for a set replacement.
type cardsAssigned struct {
	PlayerID string `json:"playerId"`
	Kind     string `json:"kind"`
	Cards    any    `json:"cards"`
}

// assignCardsHandler builds a handler that replaces one card-family set.
func (s *Server) assignCardsHandler(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignCardsReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		if req.PlayerID == nil || req.CardIDs == nil {
			writeErr(w, r, errValidation("playerId and cardIds are required"))
			return
		}

		var cards any
		var err error
		switch kind {
		case "strategy":
			cards, err = s.store.AssignStrategyCards(r.Context(), *req.PlayerID, *req.CardIDs)
		case "action":
			cards, err = s.store.AssignActionCards(r.Context(), *req.PlayerID, *req.CardIDs)
		case "technology":
			cards, err = s.store.AssignTechnologies(r.Context(), *req.PlayerID, *req.CardIDs)
		}
		if err != nil {
			writeErr(w, r, err)
			return
		}
		out := cardsAssigned{PlayerID: *req.PlayerID, Kind: kind, Cards: cards}
		s.hub.Broadcast("cards-assigned", out)
		writeJSON(w, http.StatusOK, out)
	}
}

// techTappedReq is the payload for POST /api/player/technology/update-tapped.
type techTappedReq struct {
	PlayerID *string `json:"playerId"`
	CardID   *int    `json:"cardId"`
	Tapped   *bool   `json:"tapped"`
}

// handleUpdateTechTapped flips the tapped flag on one owned technology.
func (s *Server) handleUpdateTechTapped(w http.ResponseWriter, r *http.Request) {
	var req techTappedReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.CardID == nil || req.Tapped == nil {
		writeErr(w, r, errValidation("playerId, cardId and tapped are required"))
		return
	}
	card, err := s.store.UpdateTechTapped(r.Context(), *req.PlayerID, *req.CardID, *req.Tapped)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := map[string]any{"playerId": *req.PlayerID, "card": card}
	s.hub.Broadcast("technology-tapped", out)
	writeJSON(w, http.StatusOK, out)
}

// combineReq is the payload for POST /api/combine-relic-fragments.
type combineReq struct {
	PlayerID    *string `json:"playerId"`
	FragmentIDs *[]int  `json:"fragmentIds"`
}

// handleCombineRelicFragments trades three compatible fragments for a random
// relic. Validation failures leave the player's hand untouched; an empty
// relic deck rolls the whole transaction back.
func (s *Server) handleCombineRelicFragments(w http.ResponseWriter, r *http.Request) {
	var req combineReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.FragmentIDs == nil {
		writeErr(w, r, errValidation("playerId and fragmentIds are required"))
		return
	}
	res, err := s.store.CombineRelicFragments(r.Context(), *req.PlayerID, *req.FragmentIDs)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("relic-gained", res)
	writeJSON(w, http.StatusOK, res)
}

// handlePlayerHand returns the exploration cards and relics a player holds.
func (s *Server) handlePlayerHand(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeErr(w, r, errValidation("playerId query parameter is required"))
		return
	}
	exploration, err := s.store.PlayerExplorationCards(r.Context(), playerID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	relics, err := s.store.PlayerRelics(r.Context(), playerID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"playerId":         playerID,
		"explorationCards": exploration,
		"relics":           relics,
	})
}
