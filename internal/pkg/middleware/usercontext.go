package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/internal/pkg/session"
	"github.com/dreambrush/portal/internal/pkg/usercontext"
)

// UserContextMiddleware loads the session principal into request locals for
// every request. This centralizes session handling so controllers only read
// usercontext.GetUserContext(c).
func UserContextMiddleware(c *fiber.Ctx) error {
	user := session.CurrentUser(c)
	if user == nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		UserID:     user.ID,
		Username:   user.Name,
		Email:      user.Email,
		Tier:       user.Tier,
		IsLoggedIn: true,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	return c.Next()
}
