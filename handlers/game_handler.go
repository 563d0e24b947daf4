package handlers

import (
	"net/http"

	"github.com/TeaBear5/inspyre-ping-pong/middleware"
	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) Report(w http.ResponseWriter, r *http.Request) {
	reporterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.ReportGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.Report(r.Context(), reporterID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetByID(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(gameID int, actor services.Actor) (*models.Game, error) {
		return h.gameService.Verify(r.Context(), gameID, actor)
	})
}

func (h *GameHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.transition(w, r, func(gameID int, actor services.Actor) (*models.Game, error) {
		return h.gameService.Dispute(r.Context(), gameID, actor, input.Reason)
	})
}

func (h *GameHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Notes string `json:"notes"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.transition(w, r, func(gameID int, actor services.Actor) (*models.Game, error) {
		return h.gameService.Resolve(r.Context(), gameID, actor, input.Notes)
	})
}

func (h *GameHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(gameID int, actor services.Actor) (*models.Game, error) {
		return h.gameService.Cancel(r.Context(), gameID, actor)
	})
}

func (h *GameHandler) transition(w http.ResponseWriter, r *http.Request, apply func(gameID int, actor services.Actor) (*models.Game, error)) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	game, err := apply(gameID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var status *models.GameStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.GameStatus(raw)
		status = &s
	}
	limit := queryInt(r, "limit", 50)

	games, err := h.gameService.ListByPlayer(r.Context(), userID, status, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) ListPendingVerifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	games, err := h.gameService.ListPendingVerifications(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
