package handlers

import (
	"net/http"
	"time"

	"github.com/TeaBear5/inspyre-ping-pong/services"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetWeekly serves the standings of a given ISO week; without query
// parameters it serves the current week.
func (h *LeaderboardHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	currentYear, currentWeek := time.Now().ISOWeek()
	week := queryInt(r, "week", currentWeek)
	year := queryInt(r, "year", currentYear)
	if week < 1 || week > 53 {
		errorResponse(w, r, http.StatusBadRequest, "week must be between 1 and 53")
		return
	}

	standings, err := h.leaderboardService.WeeklyStandings(r.Context(), week, year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"week":      week,
		"year":      year,
		"standings": standings,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeaderboardHandler) GetEloLadder(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	profiles, err := h.leaderboardService.EloLadder(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ladder": profiles}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
