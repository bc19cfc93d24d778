package content

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

// Setup registers all page content routes
func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/pages", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/:pageId/sync", middleware.RequireCapability("sync:run"), h.controller.SyncPage)
	group.Get("/:pageId/tree", middleware.RequireCapability("sync:run"), h.controller.Tree)
	group.Get("/:pageId/breadcrumb/:objectId", middleware.RequireCapability("sync:run"), h.controller.Breadcrumb)
}
