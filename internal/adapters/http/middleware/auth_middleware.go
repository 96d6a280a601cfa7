package middleware

import (
	"strings"

	"courseflow/internal/config"
	"courseflow/internal/core/domain"
	"courseflow/internal/pkg/jwt"
	"courseflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware. It resolves the actor
// identity the workflow layer consumes.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		authHeader := c.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			accessToken = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("role", claims.Role)
		c.Locals("school", claims.School)
		c.Locals("department", claims.Department)

		return c.Next()
	}
}

// Actor builds the resolved workflow actor from the request context
func Actor(c *fiber.Ctx) domain.Actor {
	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	school, _ := c.Locals("school").(string)
	department, _ := c.Locals("department").(string)

	return domain.Actor{
		ID:         userID,
		Role:       domain.Role(role),
		School:     school,
		Department: department,
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if domain.Role(role) == allowed {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// FinanceOnly middleware allows finance or admin
func FinanceOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleFinance, domain.RoleAdmin)
}
