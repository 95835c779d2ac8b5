package controllers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/lexpraxis/LexPraxis/internal/pkg/vault"
)

// SecretController exposes the administrative secret API. Raw secret values
// never leave through this surface: listings carry names only and lookups a
// masked preview.
type SecretController struct {
	vault    *vault.Vault
	validate *validator.Validate
}

func NewSecretController(v *vault.Vault) *SecretController {
	return &SecretController{
		vault:    v,
		validate: validator.New(),
	}
}

type createSecretRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=191"`
	Value       string `json:"value" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

func (sc *SecretController) HandleListSecrets(c *fiber.Ctx) error {
	names := sc.vault.SecretNames()
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"environment": sc.vault.Environment(),
		"secrets":     names,
	})
}

func (sc *SecretController) HandleGetSecret(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	value, ok := sc.vault.GetSecret(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "secret_not_found"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"name":    name,
		"preview": maskSecretValue(value),
	})
}

func (sc *SecretController) HandleCreateSecret(c *fiber.Ctx) error {
	var req createSecretRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid_payload"})
	}
	if err := sc.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "validation_failed", "message": err.Error()})
	}

	if !sc.vault.SetSecret(req.Name, req.Value, req.Description) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "secret_write_failed"})
	}
	return c.JSON(fiber.Map{"success": true, "name": req.Name})
}

func (sc *SecretController) HandleDeleteSecret(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "name_required"})
	}
	if !sc.vault.DeleteSecret(name) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "secret_delete_failed"})
	}
	return c.JSON(fiber.Map{"success": true, "name": name})
}

func (sc *SecretController) HandleClearCache(c *fiber.Ctx) error {
	sc.vault.ClearCache()
	return c.JSON(fiber.Map{"success": true})
}

func maskSecretValue(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:4] + "****"
}
