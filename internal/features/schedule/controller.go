package schedule

import (
	"notisync/pkg/utils"

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

func ownerFrom(c *fiber.Ctx) string {
	if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		return claims.OwnerID
	}
	return ""
}

// Set godoc
func (ctrl *Controller) Set(c *fiber.Ctx) error {
	var body struct {
		Expression string `json:"expression"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.Schedule(c.Context(), ownerFrom(c), body.Expression); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Schedule saved successfully",
	})
}

// Get godoc
func (ctrl *Controller) Get(c *fiber.Ctx) error {
	entry, err := ctrl.Service.Get(c.Context(), ownerFrom(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No schedule configured",
		})
	}

	return c.JSON(entry)
}

// Delete godoc
func (ctrl *Controller) Delete(c *fiber.Ctx) error {
	if err := ctrl.Service.Unschedule(c.Context(), ownerFrom(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Schedule removed successfully",
	})
}

// List godoc
func (ctrl *Controller) List(c *fiber.Ctx) error {
	entries, err := ctrl.Service.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": entries,
	})
}
