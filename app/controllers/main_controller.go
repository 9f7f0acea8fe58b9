package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/dreambrush/portal/internal/pkg/usercontext"
)

// HandleHome renders the landing page.
func HandleHome(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	return c.Render("index", fiber.Map{
		"LoggedIn": userCtx.IsLoggedIn,
		"Username": userCtx.Username,
		"Tier":     userCtx.Tier,
		"Flash":    flash.Get(c),
	})
}
