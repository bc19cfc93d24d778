package account

import (
	"notisync/internal/common/api"
	"notisync/internal/config"
	"notisync/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Api struct {
	controller *Controller
	config     *config.Config
}

func NewApi(controller *Controller, config *config.Config) api.Route {
	return &Api{
		controller: controller,
		config:     config,
	}
}

// Setup registers all account routes
func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/account", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.Get)
	group.Put("/", h.controller.Save)
	group.Put("/capabilities", middleware.RequireCapability("sync:admin"), h.controller.SetCapabilities)
}
