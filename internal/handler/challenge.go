package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/model"
	"github.com/dukerupert/startracker/internal/store"
	"github.com/dukerupert/startracker/internal/websocket"
)

// ChallengeHandler tracks weekly challenge check-ins.
type ChallengeHandler struct {
	challenges *store.ChallengeStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewChallengeHandler(cs *store.ChallengeStore, hub *websocket.Hub, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{challenges: cs, hub: hub, logger: logger}
}

// CheckIn marks today done on a child's weekly challenge. Completing all
// seven days awards the bonus once.
func (h *ChallengeHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	rewardID, err := parsePathID(r, "rewardID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reward id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	result, err := h.challenges.CheckIn(childID, rewardID)
	if err != nil {
		h.logger.Error("challenge check-in", "child_id", childID, "reward_id", rewardID, "error", err)
		writeStoreError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("challenge", "checked_in", rewardID, childID, map[string]any{
			"days_completed": result.DaysCompleted,
			"bonus_awarded":  result.BonusAwarded,
		}))
	}
	writeJSON(w, http.StatusOK, result)
}

// CurrentWeek returns the child's challenge progress rows for this week.
func (h *ChallengeHandler) CurrentWeek(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	progress, err := h.challenges.CurrentWeek(childID)
	if err != nil {
		h.logger.Error("get challenge progress", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get challenge progress")
		return
	}
	if progress == nil {
		progress = []model.WeeklyChallengeProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}
