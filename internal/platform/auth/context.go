package auth

import "context"

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	ClaimsKey   contextKey = "session_claims"
)

// Staff roles.
const (
	RoleHR        = "HR"
	RoleDoctor    = "Doctor"
	RoleFrontDesk = "FrontDesk"
	RoleAdmin     = "Admin"
)

// ValidRole reports whether r is one of the staff roles.
func ValidRole(r string) bool {
	switch r {
	case RoleHR, RoleDoctor, RoleFrontDesk, RoleAdmin:
		return true
	}
	return false
}

// WithUser returns a context carrying the caller's id and role.
func WithUser(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRoleKey, role)
}

func UserIDFromContext(ctx context.Context) int64 {
	uid, _ := ctx.Value(UserIDKey).(int64)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// ClaimsFromContext returns the verified session claims, or nil for
// development requests that carried no token.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsKey).(*Claims)
	return claims
}
