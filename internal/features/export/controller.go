package export

import (
	"fmt"

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

// Export godoc
func (ctrl *Controller) Export(c *fiber.Ctx) error {
	file, filename, err := ctrl.Service.Export(c.Context(), ownerFrom(c), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

	return file.Write(c.Response().BodyWriter())
}
