package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/dreambrush/portal/app/controllers"
	"github.com/dreambrush/portal/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	portal := api.Group("/portal")
	portal.Get("/plans", controllers.HandleListPlans)
	portal.Get("/me", middleware.RequireAPISessionAuth, controllers.HandleGetAccount)

	// Upgrade wizard. Every route needs a signed-in session; the wizard
	// state itself lives in that session.
	wizard := portal.Group("/upgrade", middleware.RequireAPISessionAuth)
	wizard.Get("/", controllers.HandleUpgradeState)
	wizard.Post("/start", controllers.HandleUpgradeStart)
	wizard.Post("/select", controllers.HandleUpgradeSelect)
	wizard.Post("/confirm", controllers.HandleUpgradeConfirm)
	wizard.Post("/complete", controllers.HandleUpgradeComplete)
	wizard.Delete("/", controllers.HandleUpgradeCancel)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
