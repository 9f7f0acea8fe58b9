package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/internal/pkg/billing"
	"github.com/dreambrush/portal/internal/pkg/env"
	"github.com/dreambrush/portal/internal/pkg/session"
)

var (
	apiClient    *billing.Client
	publicDomain string
)

// InitializePortalControllers wires the shared backend client. Called once
// from the router during startup.
func InitializePortalControllers() {
	apiClient = billing.NewClientFromEnv()
	publicDomain = env.PublicDomain()
}

// SetAPIClient replaces the backend client, for tests.
func SetAPIClient(c *billing.Client) {
	apiClient = c
}

// requestClient binds the shared client to the current session's bearer
// token. A 401 from the backend clears the session once, globally, so every
// API wrapper shares the same re-login behavior.
func requestClient(c *fiber.Ctx) *billing.Client {
	return apiClient.
		WithToken(session.Token(c)).
		WithUnauthorizedHook(func() {
			_ = session.SignOut(c)
		})
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// apiErrorStatus maps a backend failure onto the portal's own response code.
func apiErrorStatus(err error) int {
	if apiErr, ok := err.(*billing.APIError); ok {
		switch {
		case apiErr.Status == fiber.StatusUnauthorized:
			return fiber.StatusUnauthorized
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return fiber.StatusBadRequest
		}
	}
	return fiber.StatusBadGateway
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
