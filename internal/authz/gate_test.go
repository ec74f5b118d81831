package authz

import (
	"testing"

	"github.com/haswanth04/examctl/internal/model"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		role          model.Role
		required      []model.Role
		wantAllowed   bool
		wantRedirect  string
	}{
		{
			name:         "unauthenticated goes to login",
			required:     []model.Role{model.RoleStudent},
			wantRedirect: model.RouteLogin,
		},
		{
			name:         "unauthenticated with no required roles still goes to login",
			wantRedirect: model.RouteLogin,
		},
		{
			name:          "authenticated with no required roles allowed",
			authenticated: true,
			role:          model.RoleStudent,
			wantAllowed:   true,
		},
		{
			name:          "matching role allowed",
			authenticated: true,
			role:          model.RoleExaminer,
			required:      []model.Role{model.RoleExaminer},
			wantAllowed:   true,
		},
		{
			name:          "role in multi-role set allowed",
			authenticated: true,
			role:          model.RoleAdmin,
			required:      []model.Role{model.RoleExaminer, model.RoleAdmin},
			wantAllowed:   true,
		},
		{
			name:          "wrong role redirects to own home, not login",
			authenticated: true,
			role:          model.RoleStudent,
			required:      []model.Role{model.RoleAdmin},
			wantRedirect:  model.RouteUserDashboard,
		},
		{
			name:          "admin denied an examiner screen lands on admin home",
			authenticated: true,
			role:          model.RoleAdmin,
			required:      []model.Role{model.RoleExaminer},
			wantRedirect:  model.RouteAdminDashboard,
		},
		{
			name:          "role matching is case-sensitive",
			authenticated: true,
			role:          model.Role("admin"),
			required:      []model.Role{model.RoleAdmin},
			wantRedirect:  model.RouteLogin,
		},
		{
			name:          "unknown role denied falls back to login route",
			authenticated: true,
			role:          model.Role("AUDITOR"),
			required:      []model.Role{model.RoleAdmin},
			wantRedirect:  model.RouteLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.authenticated, tt.role, tt.required)
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if got.RedirectTo != tt.wantRedirect {
				t.Errorf("RedirectTo = %q, want %q", got.RedirectTo, tt.wantRedirect)
			}
		})
	}
}
