// internal/httpserver/routes_objectives.go

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// mountObjectiveRoutes registers objective routes. Creation is host-gated;
// completion toggling is open to any client like the rest of the app.
func (s *Server) mountObjectiveRoutes(r chi.Router) {
	r.Get("/objectives", s.handleListObjectives)
	r.With(s.requireHost()).Post("/objectives", s.handleCreateObjective)
	r.Post("/objective/update-completed", s.handleUpdateObjectiveCompleted)
	r.Get("/player/objectives", s.handlePlayerObjectives)
}

func (s *Server) handleListObjectives(w http.ResponseWriter, r *http.Request) {
	objectives, err := s.store.ListObjectives(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, objectives)
}

// handlePlayerObjectives returns one player's objectives with their recorded
// completion state.
func (s *Server) handlePlayerObjectives(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeErr(w, r, errValidation("playerId query parameter is required"))
		return
	}
	objectives, err := s.store.PlayerObjectives(r.Context(), playerID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, objectives)
}

// createObjectiveReq is the payload for POST /api/objectives.
type createObjectiveReq struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Points      int    `json:"points"`
}

func (s *Server) handleCreateObjective(w http.ResponseWriter, r *http.Request) {
	var req createObjectiveReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	o, err := s.store.CreateObjective(r.Context(), req.Description, req.Type, req.Points)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("objective-created", o)
	writeJSON(w, http.StatusCreated, o)
}

// objectiveCompletedReq is the payload for POST /api/objective/update-completed.
type objectiveCompletedReq struct {
	PlayerID    *string `json:"playerId"`
	ObjectiveID *int    `json:"objectiveId"`
	Completed   *bool   `json:"completed"`
}

func (s *Server) handleUpdateObjectiveCompleted(w http.ResponseWriter, r *http.Request) {
	var req objectiveCompletedReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PlayerID == nil || req.ObjectiveID == nil || req.Completed == nil {
		writeErr(w, r, errValidation("playerId, objectiveId and completed are required"))
		return
	}
	po, err := s.store.UpdateObjectiveCompleted(r.Context(), *req.PlayerID, *req.ObjectiveID, *req.Completed)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.hub.Broadcast("objective-updated", po)
	writeJSON(w, http.StatusOK, po)
}
