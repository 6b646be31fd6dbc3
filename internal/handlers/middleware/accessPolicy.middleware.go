package middleware

import (
	"strings"

	. "fieldvisit/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AccessPolicy maps route path prefixes to the roles allowed beneath
// them. The longest matching prefix wins; a path with no matching prefix
// only requires authentication.
type AccessPolicy map[string][]UserRole

// DefaultAccessPolicy is the role layout of the API surface
func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{
		"/api/admin":       {RoleAdmin},
		"/api/imports":     {RoleAdmin, RoleAuditor},
		"/api/reports":     {RoleAdmin, RoleAuditor},
		"/api/assignments": {RoleAdmin, RoleAuditor, RoleTechnician},
		"/api/audits":      {RoleAdmin, RoleAuditor, RoleTechnician},
	}
}

// allowedRoles resolves the role set governing a path, if any
func (p AccessPolicy) allowedRoles(path string) ([]UserRole, bool) {
	var bestPrefix string
	var bestRoles []UserRole

	for prefix, roles := range p {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		// Guard against /api/auditsfoo matching /api/audits
		if len(path) > len(prefix) && path[len(prefix)] != '/' {
			continue
		}
		if len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			bestRoles = roles
		}
	}

	return bestRoles, bestPrefix != ""
}

func roleAllowed(roles []UserRole, role UserRole) bool {
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// EnforcePolicy runs after RequireAuth and rejects requests whose user
// role is outside the policy for the matched prefix
func (m *Middleware) EnforcePolicy(policy AccessPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("EnforcePolicy")

		user := GetUser(c)
		if user == nil {
			log.Info("access denied, no authenticated user", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		roles, matched := policy.allowedRoles(c.Path())
		if matched && !roleAllowed(roles, user.Role) {
			log.Info("access denied by policy", "path", c.Path(), "role", user.Role, "userID", user.ID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.Next()
	}
}

// RequireRoles guards a single route group with an explicit role list,
// independent of the prefix policy
func (m *Middleware) RequireRoles(roles ...UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireRoles")

		user := GetUser(c)
		if user == nil {
			log.Info("access denied, no authenticated user", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !roleAllowed(roles, user.Role) {
			log.Info("access denied by role", "path", c.Path(), "role", user.Role, "userID", user.ID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.Next()
	}
}
