package controllers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lexpraxis/LexPraxis/internal/pkg/billing"
	"github.com/lexpraxis/LexPraxis/internal/pkg/vault"
)

const webhookSigningSecret = "stripe_webhook_secret"

// WebhookController receives provider event deliveries. It is the outermost
// boundary of the pipeline: every ledger-gated outcome answers 200 with a
// structured body, and non-2xx is reserved for malformed input or failures the
// provider should retry.
type WebhookController struct {
	svc   *billing.Service
	vault *vault.Vault
}

func NewWebhookController(svc *billing.Service, v *vault.Vault) *WebhookController {
	return &WebhookController{svc: svc, vault: v}
}

func (wc *WebhookController) HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	var event billing.Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.Type) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_envelope"})
	}

	// Signature verification is advisory when no signing secret is seeded yet;
	// the validity flag is recorded on the ledger row either way.
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret, _ := wc.vault.GetSecret(webhookSigningSecret)
	signatureValid := billing.VerifyWebhookSignature(rawBody, signature, secret)
	if secret != "" && !signatureValid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := wc.svc.ProcessEvent(ctx, event, rawBody, signatureValid)
	if err != nil {
		// Ledger gate unavailable; a non-2xx tells the provider to redeliver.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_persist_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
