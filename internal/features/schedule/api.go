package schedule

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

// Setup registers all schedule routes
func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/schedule", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Put("/", middleware.RequireCapability("sync:run"), h.controller.Set)
	group.Get("/", middleware.RequireCapability("sync:run"), h.controller.Get)
	group.Delete("/", middleware.RequireCapability("sync:run"), h.controller.Delete)
	group.Get("/all", middleware.RequireCapability("sync:admin"), h.controller.List)
}
