package handlers

import (
	"net/http"

	"github.com/jjudge-oj/grader/internal/services"
	"github.com/jjudge-oj/grader/types"
	"go.uber.org/zap"
)

// LeaderboardHandler serves contest standings.
type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	logger             *zap.Logger
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService, logger: logger}
}

type LeaderboardResponse struct {
	ContestID int64                    `json:"contest_id"`
	Entries   []types.LeaderboardEntry `json:"entries"`
}

// GetLeaderboard handles GET /contests/{contestID}/leaderboard.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.Build(r.Context(), contestID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to build leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{ContestID: contestID, Entries: entries})
}
