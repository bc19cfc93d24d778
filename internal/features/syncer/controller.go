package syncer

import (
	"notisync/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service Orchestrator
}

func NewController(service Orchestrator) *Controller {
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

// Run godoc
func (ctrl *Controller) Run(c *fiber.Ctx) error {
	var body struct {
		TargetID string `json:"target_id"`
	}
	// Empty body means "run every enabled target".
	_ = c.BodyParser(&body)

	result, err := ctrl.Service.Run(c.Context(), ownerFrom(c), body.TargetID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sync completed",
		"data":    result,
	})
}

// Recreate godoc
func (ctrl *Controller) Recreate(c *fiber.Ctx) error {
	if err := ctrl.Service.Recreate(c.Context(), ownerFrom(c), c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Mirror tables recreated successfully",
	})
}

// Discover godoc
func (ctrl *Controller) Discover(c *fiber.Ctx) error {
	result, err := ctrl.Service.Discover(c.Context(), ownerFrom(c), c.Query("cursor"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

// History godoc
func (ctrl *Controller) History(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 50))

	runs, err := ctrl.Service.History(c.Context(), ownerFrom(c), c.Query("target_id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": runs,
	})
}
