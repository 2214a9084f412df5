package middleware

import (
	"errors"
	"strings"

	"e-nagarpalika-portal/internal/core/services"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LocalActor is the Locals key holding the authenticated workflow.Actor
const LocalActor = "actor"

// AuthMiddleware creates authentication middleware
func AuthMiddleware(idp services.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		actor, err := idp.Verify(accessToken)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(LocalActor, actor)
		return c.Next()
	}
}

// ActorFrom returns the authenticated actor stored by AuthMiddleware
func ActorFrom(c *fiber.Ctx) (workflow.Actor, bool) {
	actor, ok := c.Locals(LocalActor).(workflow.Actor)
	return actor, ok && actor.Identity != ""
}

// extractToken reads the access token from the cookie first, then the Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
