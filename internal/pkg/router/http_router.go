package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/app/controllers"
	"github.com/dreambrush/portal/internal/pkg/middleware"
	"github.com/dreambrush/portal/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize the shared backend client
	controllers.InitializePortalControllers()

	h.registerPublicRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/", controllers.HandleHome)
	app.Get("/pricing", controllers.HandlePricingPage)

	app.Get("/login", controllers.HandleLoginPage)
	app.Post("/login", controllers.HandleLogin)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleLogout)

	// Redirect targets of the external payment provider. The provider
	// appends ?orderCode=<number>; the pages read nothing else.
	app.Get("/payment/success", controllers.HandlePaymentSuccess)
	app.Get("/payment/failed", controllers.HandlePaymentFailed)
	app.Get("/payment/cancel", controllers.HandlePaymentCancel)
	app.Get("/upgrade/success", controllers.HandleUpgradeSuccess)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
