package target

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

// Setup registers all target routes
func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/targets", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", middleware.RequireCapability("sync:run"), h.controller.Register)
	group.Get("/", middleware.RequireCapability("sync:run"), h.controller.List)
	group.Get("/:id", middleware.RequireCapability("sync:run"), h.controller.Get)
	group.Put("/:id/enabled", middleware.RequireCapability("sync:run"), h.controller.SetEnabled)
	group.Put("/:id/transform", middleware.RequireCapability("sync:run"), h.controller.SetTransform)
	group.Delete("/:id", middleware.RequireCapability("sync:admin"), h.controller.Delete)
}
