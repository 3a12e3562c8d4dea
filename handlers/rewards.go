package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/services"
)

// RewardHandler records gamification events on the user record
type RewardHandler struct {
	rewardService *services.RewardService
	logger        zerolog.Logger
}

func NewRewardHandler(app *App) *RewardHandler {
	return &RewardHandler{
		rewardService: app.Rewards,
		logger:        app.Logger,
	}
}

func (h *RewardHandler) Award(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req services.AwardRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, h.logger, err)
		return
	}

	out, err := h.rewardService.Award(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"user":      out.User,
		"awarded":   out.Awarded,
		"leveledUp": out.LeveledUp,
		"newBadges": out.NewBadges,
	})
}
