package content

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

// SyncPage godoc
func (ctrl *Controller) SyncPage(c *fiber.Ctx) error {
	count, err := ctrl.Service.SyncPage(c.Context(), ownerFrom(c), c.Params("pageId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Page content synced successfully",
		"blocks":  count,
	})
}

// Tree godoc
func (ctrl *Controller) Tree(c *fiber.Ctx) error {
	tree, err := ctrl.Service.Tree(c.Context(), c.Params("pageId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": tree,
	})
}

// Breadcrumb godoc
func (ctrl *Controller) Breadcrumb(c *fiber.Ctx) error {
	path, err := ctrl.Service.Breadcrumb(c.Context(), c.Params("pageId"), c.Params("objectId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": path,
	})
}
