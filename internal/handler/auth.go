package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/middleware"
	"github.com/dukerupert/startracker/internal/model"
	"github.com/dukerupert/startracker/internal/store"
)

type AuthHandler struct {
	users    *store.UserStore
	children *store.ChildStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, cs *store.ChildStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, children: cs, sessions: ss, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.users.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	sess, err := h.sessions.CreateForUser(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	setSessionCookie(w, sess)
	writeJSON(w, http.StatusCreated, map[string]any{"role": auth.RoleParent, "user": user})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login signs in a parent by email or a child by their credential username.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	if strings.Contains(req.Login, "@") {
		h.loginParent(w, req)
		return
	}
	h.loginChild(w, req)
}

func (h *AuthHandler) loginParent(w http.ResponseWriter, req loginRequest) {
	user, err := h.users.GetByEmail(req.Login)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	hash, err := h.users.GetPasswordHash(user.ID)
	if err != nil {
		h.logger.Error("get password hash", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	sess, err := h.sessions.CreateForUser(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]any{"role": auth.RoleParent, "user": user})
}

func (h *AuthHandler) loginChild(w http.ResponseWriter, req loginRequest) {
	child, err := h.children.GetByUsername(req.Login)
	if err != nil {
		h.logger.Error("lookup child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if child == nil {
		writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	hash, err := h.children.GetPasswordHash(child.ID)
	if err != nil {
		h.logger.Error("get child password hash", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	sess, err := h.sessions.CreateForChild(child.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]any{"role": auth.RoleChild, "child_id": child.ID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func setSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
