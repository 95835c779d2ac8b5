package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/lexpraxis/LexPraxis/app/controllers"
	"github.com/lexpraxis/LexPraxis/internal/pkg/billing"
	"github.com/lexpraxis/LexPraxis/internal/pkg/middleware"
	"github.com/lexpraxis/LexPraxis/internal/pkg/vault"
)

type ApiRouter struct {
	vault *vault.Vault
	svc   *billing.Service
}

func NewApiRouter(v *vault.Vault, svc *billing.Service) *ApiRouter {
	return &ApiRouter{vault: v, svc: svc}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	v1 := api.Group("/v1")

	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	apiKeyAuth := middleware.APIKeyAuthMiddleware(h.vault)

	secretCtrl := controllers.NewSecretController(h.vault)
	admin := v1.Group("/admin", apiKeyAuth)
	admin.Get("/secrets", secretCtrl.HandleListSecrets)
	admin.Get("/secret/:name", secretCtrl.HandleGetSecret)
	admin.Post("/secret", secretCtrl.HandleCreateSecret)
	admin.Delete("/secret/:name", secretCtrl.HandleDeleteSecret)
	admin.Post("/clear-cache", secretCtrl.HandleClearCache)

	// Webhook deliveries authenticate via signature, not API key, so the
	// auth middleware is attached per-route instead of on the group.
	billingGroup := v1.Group("/billing")

	webhookCtrl := controllers.NewWebhookController(h.svc, h.vault)
	billingGroup.Post("/webhook", webhookCtrl.HandleBillingWebhook)

	syncCtrl := controllers.NewSyncController(h.svc)
	billingGroup.Get("/customers/search", apiKeyAuth, syncCtrl.HandleSearchCustomers)
	billingGroup.Post("/customers/:id/sync", apiKeyAuth, syncCtrl.HandleSyncCustomer)
	billingGroup.Post("/sync", apiKeyAuth, syncCtrl.HandleBulkSync)
	billingGroup.Post("/checkout-session", apiKeyAuth, syncCtrl.HandleCreateCheckoutSession)
	billingGroup.Post("/subscription", apiKeyAuth, syncCtrl.HandleCreateSubscription)
}
