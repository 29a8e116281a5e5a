package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/model"
	"github.com/dukerupert/startracker/internal/store"
	"github.com/dukerupert/startracker/internal/websocket"
)

type ChildHandler struct {
	children *store.ChildStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewChildHandler(cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{children: cs, hub: hub, logger: logger}
}

func (h *ChildHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type childRequest struct {
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	BirthDate *string `json:"birth_date"`
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	child, err := h.children.Create(auth.UserID(r.Context()), req.Name, req.AvatarURL, req.BirthDate)
	if err != nil {
		h.logger.Error("create child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create child")
		return
	}

	h.broadcast(websocket.NewMessage("child", "created", child.ID, child.ID, nil))
	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	children, err := h.children.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	if children == nil {
		children = []model.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !auth.CanAccessChild(r.Context(), id) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	child, err := h.children.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.children.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	child, err := h.children.Update(id, req.Name, req.AvatarURL, req.BirthDate)
	if err != nil {
		h.logger.Error("update child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update child")
		return
	}

	h.broadcast(websocket.NewMessage("child", "updated", id, id, nil))
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.children.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	if err := h.children.Delete(id); err != nil {
		h.logger.Error("delete child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete child")
		return
	}

	h.broadcast(websocket.NewMessage("child", "deleted", id, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type credentialRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetCredential gives a child a login so they can view their own dashboard.
func (h *ChildHandler) SetCredential(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.children.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || strings.Contains(req.Username, "@") {
		writeError(w, http.StatusBadRequest, "username is required and must not contain @")
		return
	}
	if len(req.Password) < 4 {
		writeError(w, http.StatusBadRequest, "password must be at least 4 characters")
		return
	}

	taken, err := h.children.GetByUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check username")
		return
	}
	if taken != nil && taken.ID != id {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := h.children.SetCredential(id, req.Username, string(hash)); err != nil {
		h.logger.Error("set credential", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set credential")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "credential set"})
}

func (h *ChildHandler) ClearCredential(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.children.ClearCredential(id); err != nil {
		h.logger.Error("clear credential", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear credential")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "credential cleared"})
}
