package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/internal/pkg/billing"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID     uint         `json:"user_id"`
	Username   string       `json:"username"`
	Email      string       `json:"email"`
	Tier       billing.Tier `json:"tier"`
	IsLoggedIn bool         `json:"is_logged_in"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(KeyUserContext); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false, Tier: billing.TierFree}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetTier returns the current user's tier; anonymous visitors are FREE.
func GetTier(c *fiber.Ctx) billing.Tier {
	return GetUserContext(c).Tier
}
