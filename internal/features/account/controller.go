package account

import (
	"notisync/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service Service
	Repo    Repository
}

func NewController(service Service, repo Repository) *Controller {
	return &Controller{
		Service: service,
		Repo:    repo,
	}
}

func ownerFrom(c *fiber.Ctx) string {
	if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		return claims.OwnerID
	}
	return ""
}

// Get godoc
func (ctrl *Controller) Get(c *fiber.Ctx) error {
	account, err := ctrl.Repo.GetByOwner(c.Context(), ownerFrom(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No account configured",
		})
	}

	// The token never leaves the server; the json tag drops it.
	return c.JSON(account)
}

// Save godoc
func (ctrl *Controller) Save(c *fiber.Ctx) error {
	var body struct {
		Name          string `json:"name"`
		NotionToken   string `json:"notion_token"`
		NotionVersion string `json:"notion_version"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	account := &Account{
		OwnerID:       ownerFrom(c),
		Name:          body.Name,
		NotionToken:   body.NotionToken,
		NotionVersion: body.NotionVersion,
	}

	if err := ctrl.Service.Save(c.Context(), account); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Account saved successfully",
	})
}

// SetCapabilities godoc
func (ctrl *Controller) SetCapabilities(c *fiber.Ctx) error {
	var body struct {
		OwnerID      string   `json:"owner_id"`
		Capabilities []string `json:"capabilities"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	account, err := ctrl.Repo.GetByOwner(c.Context(), body.OwnerID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No account configured for owner",
		})
	}

	account.Capabilities = body.Capabilities
	if err := ctrl.Service.Save(c.Context(), account); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Capabilities updated successfully",
	})
}
