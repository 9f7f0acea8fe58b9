package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/dreambrush/portal/internal/pkg/session"
	"github.com/dreambrush/portal/internal/pkg/usercontext"
)

// HandleLoginPage renders the login form.
func HandleLoginPage(c *fiber.Ctx) error {
	if usercontext.IsLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Render("login", fiber.Map{
		"Flash": flash.Get(c),
	})
}

// HandleLogin authenticates against the platform backend and stores the
// issued bearer token plus the account copy in the session.
func HandleLogin(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	token, user, err := requestClient(c).Login(c.Context(), email, password)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Login failed. Check your email and password."}
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := session.SignIn(c, user, token); err != nil {
		fm := fiber.Map{"type": "error", "message": "Could not start a session."}
		return flash.WithError(c, fm).Redirect("/login")
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleLogout destroys the session.
func HandleLogout(c *fiber.Ctx) error {
	_ = session.SignOut(c)
	fm := fiber.Map{"type": "success", "message": "You have been logged out."}
	return flash.WithSuccess(c, fm).Redirect("/login")
}
