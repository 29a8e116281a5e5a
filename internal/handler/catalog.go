package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/model"
	"github.com/dukerupert/startracker/internal/store"
)

// CatalogHandler exposes CRUD for activity types and penalty/bonus types.
type CatalogHandler struct {
	catalog *store.CatalogStore
	logger  *slog.Logger
}

func NewCatalogHandler(cs *store.CatalogStore, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: cs, logger: logger}
}

type activityTypeRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	StarLevel1  int    `json:"star_level_1"`
	StarLevel2  int    `json:"star_level_2"`
	StarLevel3  int    `json:"star_level_3"`
	Active      *bool  `json:"active"`
	SortOrder   int    `json:"sort_order"`
}

func (r *activityTypeRequest) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.StarLevel1 < 0 || r.StarLevel2 < 0 || r.StarLevel3 < 0 {
		return "star levels must not be negative"
	}
	return ""
}

func (h *CatalogHandler) CreateActivityType(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	var req activityTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	at, err := h.catalog.CreateActivityType(req.Name, req.Icon, req.Description,
		[3]int{req.StarLevel1, req.StarLevel2, req.StarLevel3}, req.SortOrder)
	if err != nil {
		h.logger.Error("create activity type", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create activity type")
		return
	}
	writeJSON(w, http.StatusCreated, at)
}

func (h *CatalogHandler) ListActivityTypes(w http.ResponseWriter, r *http.Request) {
	var (
		types []model.ActivityType
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		types, err = h.catalog.ListActiveActivityTypes()
	} else {
		types, err = h.catalog.ListActivityTypes()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list activity types")
		return
	}
	if types == nil {
		types = []model.ActivityType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *CatalogHandler) UpdateActivityType(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.catalog.GetActivityType(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get activity type")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "activity type not found")
		return
	}

	var req activityTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	at, err := h.catalog.UpdateActivityType(id, req.Name, req.Icon, req.Description,
		[3]int{req.StarLevel1, req.StarLevel2, req.StarLevel3}, active, req.SortOrder)
	if err != nil {
		h.logger.Error("update activity type", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update activity type")
		return
	}
	writeJSON(w, http.StatusOK, at)
}

func (h *CatalogHandler) DeleteActivityType(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.catalog.DeleteActivityType(id); err != nil {
		h.logger.Error("delete activity type", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete activity type")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type penaltyTypeRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Kind          string `json:"kind"`
	StarDeduction int    `json:"star_deduction"`
	Icon          string `json:"icon"`
	Active        *bool  `json:"active"`
}

func (r *penaltyTypeRequest) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.StarDeduction < 0 {
		return "star_deduction must not be negative"
	}
	return ""
}

func (h *CatalogHandler) CreatePenaltyType(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	var req penaltyTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	pt, err := h.catalog.CreatePenaltyType(req.Name, req.Description, req.Kind, req.StarDeduction, req.Icon)
	if err != nil {
		h.logger.Error("create penalty type", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create penalty type")
		return
	}
	writeJSON(w, http.StatusCreated, pt)
}

func (h *CatalogHandler) ListPenaltyTypes(w http.ResponseWriter, r *http.Request) {
	var (
		types []model.PenaltyType
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		types, err = h.catalog.ListActivePenaltyTypes()
	} else {
		types, err = h.catalog.ListPenaltyTypes()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list penalty types")
		return
	}
	if types == nil {
		types = []model.PenaltyType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *CatalogHandler) UpdatePenaltyType(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.catalog.GetPenaltyType(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get penalty type")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "penalty type not found")
		return
	}

	var req penaltyTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}
	if req.Icon == "" {
		req.Icon = existing.Icon
	}

	pt, err := h.catalog.UpdatePenaltyType(id, req.Name, req.Description, req.Kind, req.StarDeduction, req.Icon, active)
	if err != nil {
		h.logger.Error("update penalty type", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update penalty type")
		return
	}
	writeJSON(w, http.StatusOK, pt)
}

func (h *CatalogHandler) DeletePenaltyType(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.catalog.DeletePenaltyType(id); err != nil {
		h.logger.Error("delete penalty type", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete penalty type")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
