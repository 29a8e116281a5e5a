package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/model"
	"github.com/dukerupert/startracker/internal/store"
	"github.com/dukerupert/startracker/internal/websocket"
)

// EvaluationHandler records and reads daily behavior evaluations.
type EvaluationHandler struct {
	evaluations *store.EvaluationStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewEvaluationHandler(es *store.EvaluationStore, hub *websocket.Hub, logger *slog.Logger) *EvaluationHandler {
	return &EvaluationHandler{evaluations: es, hub: hub, logger: logger}
}

type submitEvaluationRequest struct {
	Ratings    []model.ActivityRating `json:"ratings"`
	PenaltyIDs []int64                `json:"penalty_ids"`
	Notes      string                 `json:"notes"`
}

// Submit records today's evaluation for a child. Resubmitting the same day
// replaces the earlier evaluation and its ledger entries.
func (h *EvaluationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	var req submitEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	// Penalties-only submissions are valid; an entirely empty payload is not.
	if len(req.Ratings) == 0 && len(req.PenaltyIDs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one rating or penalty is required")
		return
	}
	for _, rating := range req.Ratings {
		if rating.StarLevel < 1 || rating.StarLevel > 3 {
			writeError(w, http.StatusBadRequest, "rating level must be between 1 and 3")
			return
		}
	}

	result, err := h.evaluations.Submit(childID, req.Ratings, req.PenaltyIDs, req.Notes, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("submit evaluation", "child_id", childID, "error", err)
		writeStoreError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("evaluation", "submitted", childID, childID, map[string]any{
			"earned":   result.Earned,
			"deducted": result.Deducted,
		}))
	}
	writeJSON(w, http.StatusOK, result)
}

// Today returns the child's evaluation for the current local date, or null
// when none has been submitted yet.
func (h *EvaluationHandler) Today(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	eval, err := h.evaluations.GetToday(childID)
	if err != nil {
		h.logger.Error("get today's evaluation", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get evaluation")
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

// History returns recent evaluations, newest first. ?limit= caps the count.
func (h *EvaluationHandler) History(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	evals, err := h.evaluations.History(childID, limit)
	if err != nil {
		h.logger.Error("list evaluations", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	if evals == nil {
		evals = []model.DailyEvaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}

// Month returns all evaluations in a calendar month for history views.
func (h *EvaluationHandler) Month(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	evals, err := h.evaluations.Month(childID, year, month)
	if err != nil {
		h.logger.Error("list month evaluations", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	if evals == nil {
		evals = []model.DailyEvaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}
