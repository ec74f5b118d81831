// Package authz decides whether the current session may enter a screen.
// The decision is pure: it depends only on authentication state, the
// session's role, and the screen's required role set.
package authz

import "github.com/haswanth04/examctl/internal/model"

// Decision is the outcome of an authorization check. Denials are routing
// decisions, not errors: the caller navigates to RedirectTo.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Decide applies the gate rules:
//
//   - no required roles: allow iff authenticated
//   - required roles: allow iff authenticated and role is in the set
//   - authenticated but role not permitted: redirect to the role's own home
//     screen, never to login
//   - not authenticated: redirect to login regardless of required roles
//
// Role matching is exact and case-sensitive.
func Decide(authenticated bool, role model.Role, required []model.Role) Decision {
	if !authenticated {
		return Decision{RedirectTo: model.RouteLogin}
	}
	if len(required) == 0 {
		return Decision{Allowed: true}
	}
	for _, r := range required {
		if role == r {
			return Decision{Allowed: true}
		}
	}
	return Decision{RedirectTo: model.HomeRouteFor(role)}
}
