package auth

import "context"

type contextKey struct{}

const (
	RoleParent = "parent"
	RoleChild  = "child"
)

// AuthContext identifies the actor behind a request. Parents have UserID
// set; children signed in with their own credential have ChildID set.
type AuthContext struct {
	UserID    int64
	ChildID   int64
	Role      string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsParent(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == RoleParent
}

// CanAccessChild reports whether the actor may read or act on the given
// child's data: parents may touch any child, a child only their own.
func CanAccessChild(ctx context.Context, childID int64) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	if ac.Role == RoleParent {
		return true
	}
	return ac.ChildID == childID
}
