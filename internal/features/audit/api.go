package audit

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

// Setup registers audit routes
func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/audit", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/calls", middleware.RequireCapability("sync:admin"), h.controller.ListCalls)
}
