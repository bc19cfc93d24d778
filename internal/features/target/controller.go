package target

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

// Register godoc
func (ctrl *Controller) Register(c *fiber.Ctx) error {
	var target SyncTarget
	if err := c.BodyParser(&target); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	target.OwnerID = ownerFrom(c)

	if err := ctrl.Service.Register(c.Context(), &target); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sync target registered successfully",
		"data":    target,
	})
}

// List godoc
func (ctrl *Controller) List(c *fiber.Ctx) error {
	targets, err := ctrl.Service.List(c.Context(), ownerFrom(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": targets,
	})
}

// Get godoc
func (ctrl *Controller) Get(c *fiber.Ctx) error {
	target, err := ctrl.Service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(target)
}

// SetEnabled godoc
func (ctrl *Controller) SetEnabled(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.SetEnabled(c.Context(), c.Params("id"), body.Enabled); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sync target updated successfully",
	})
}

// SetTransform godoc
func (ctrl *Controller) SetTransform(c *fiber.Ctx) error {
	var body struct {
		Transform string `json:"transform"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.SetTransform(c.Context(), c.Params("id"), body.Transform); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Transform updated successfully",
	})
}

// Delete godoc
func (ctrl *Controller) Delete(c *fiber.Ctx) error {
	if err := ctrl.Service.Delete(c.Context(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sync target deleted successfully",
	})
}
