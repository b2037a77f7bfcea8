// Package principal describes the authenticated caller of a request.
package principal

import "context"

// Role is the caller's authority level.
type Role string

const (
	// Admin may read and modify every user's data.
	Admin Role = "admin"
	// User may only act on its own data.
	User Role = "user"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool { return r == Admin || r == User }

// Principal is the identity resolved from a request credential.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == Admin }

// CanAccess reports whether the principal may act on userID's data.
func (p Principal) CanAccess(userID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == userID)
}

type ctxKey struct{}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
