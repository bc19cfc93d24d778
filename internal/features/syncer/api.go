package syncer

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

// Setup registers all sync routes
func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/sync", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/run", middleware.RequireCapability("sync:run"), h.controller.Run)
	group.Get("/runs", middleware.RequireCapability("sync:run"), h.controller.History)
	group.Get("/discover", middleware.RequireCapability("sync:run"), h.controller.Discover)
	group.Post("/targets/:id/recreate", middleware.RequireCapability("sync:admin"), h.controller.Recreate)
}
