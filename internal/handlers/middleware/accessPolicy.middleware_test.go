package middleware

import (
	"testing"

	. "fieldvisit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessPolicyPrefixMatching(t *testing.T) {
	policy := DefaultAccessPolicy()

	tests := []struct {
		path    string
		matched bool
		allows  map[UserRole]bool
	}{
		{
			path:    "/api/admin/users",
			matched: true,
			allows:  map[UserRole]bool{RoleAdmin: true, RoleAuditor: false, RoleTechnician: false},
		},
		{
			path:    "/api/imports",
			matched: true,
			allows:  map[UserRole]bool{RoleAdmin: true, RoleAuditor: true, RoleTechnician: false},
		},
		{
			path:    "/api/reports/export",
			matched: true,
			allows:  map[UserRole]bool{RoleAdmin: true, RoleAuditor: true, RoleTechnician: false},
		},
		{
			path:    "/api/assignments/available",
			matched: true,
			allows:  map[UserRole]bool{RoleAdmin: true, RoleAuditor: true, RoleTechnician: true},
		},
		{
			path:    "/api/users/me",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			roles, matched := policy.allowedRoles(tt.path)
			assert.Equal(t, tt.matched, matched)

			for role, want := range tt.allows {
				assert.Equal(t, want, roleAllowed(roles, role), "role %s", role)
			}
		})
	}
}

func TestAccessPolicyRejectsPartialSegmentMatch(t *testing.T) {
	policy := DefaultAccessPolicy()

	_, matched := policy.allowedRoles("/api/auditsummary")
	assert.False(t, matched)

	_, matched = policy.allowedRoles("/api/audits")
	assert.True(t, matched)
}

func TestAccessPolicyLongestPrefixWins(t *testing.T) {
	policy := AccessPolicy{
		"/api":             {RoleAdmin, RoleAuditor, RoleTechnician},
		"/api/admin":       {RoleAdmin},
		"/api/admin/users": {RoleAdmin},
	}

	roles, matched := policy.allowedRoles("/api/admin/users/123")
	require.True(t, matched)
	assert.True(t, roleAllowed(roles, RoleAdmin))
	assert.False(t, roleAllowed(roles, RoleTechnician))
}
