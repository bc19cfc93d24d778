package audit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service Service
}

func NewController(service Service) *Controller {
	return &Controller{
		Service: service,
	}
}

// ListCalls godoc
func (ctrl *Controller) ListCalls(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	logs, err := ctrl.Service.ListCalls(c.Context(), c.Query("owner_id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": logs,
	})
}
