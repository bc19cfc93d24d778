package export

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

// Setup registers all export routes
func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/targets", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/:id/export", middleware.RequireCapability("sync:run"), h.controller.Export)
}
