package middleware

import (
	"net/http"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/store"
)

const SessionCookieName = "startracker_session"

// RequireAuth validates the session cookie and populates AuthContext with
// the actor's identity and role.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ac := auth.AuthContext{
				Role:      sess.Role,
				SessionID: sess.ID,
			}
			if sess.UserID != nil {
				ac.UserID = *sess.UserID
			}
			if sess.ChildID != nil {
				ac.ChildID = *sess.ChildID
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireParent gates admin operations: catalog mutation, child management,
// evaluation submission, and redemption approval are parent-only.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsParent(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
