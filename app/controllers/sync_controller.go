package controllers

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/lexpraxis/LexPraxis/internal/pkg/billing"
	"github.com/lexpraxis/LexPraxis/internal/pkg/cache"
)

const (
	customerSearchCachePrefix = "billing:customer_search:"
	customerSearchCacheTTL    = 60 * time.Second
	lastBulkSyncCacheKey      = "billing:last_bulk_sync"
)

// SyncController exposes the operator-triggered sync surface: customer
// search, single-customer re-sync, full bulk sync, and the outbound
// checkout-session/subscription creation calls.
type SyncController struct {
	svc      *billing.Service
	validate *validator.Validate
}

func NewSyncController(svc *billing.Service) *SyncController {
	return &SyncController{
		svc:      svc,
		validate: validator.New(),
	}
}

func (sc *SyncController) HandleSearchCustomers(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "query_required"})
	}

	cacheKey := customerSearchCachePrefix + query
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set("X-Cache", "hit")
		c.Set("Content-Type", "application/json")
		return c.SendString(cached)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	results, err := sc.svc.SearchCustomers(ctx, query)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "provider_request_failed", "message": err.Error()})
	}

	body, err := json.Marshal(fiber.Map{"success": true, "customers": results})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "encode_failed"})
	}
	if err := cache.Set(cacheKey, string(body), customerSearchCacheTTL); err != nil {
		log.Printf("sync: failed to cache customer search for %q: %v", query, err)
	}

	c.Set("Content-Type", "application/json")
	return c.Send(body)
}

func (sc *SyncController) HandleSyncCustomer(c *fiber.Ctx) error {
	customerID := strings.TrimSpace(c.Params("id"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := sc.svc.SyncCustomer(ctx, customerID); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "customer_sync_failed", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "customer_id": customerID})
}

func (sc *SyncController) HandleBulkSync(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary := sc.svc.BulkSync(ctx)

	if encoded, err := json.Marshal(summary); err == nil {
		if err := cache.Set(lastBulkSyncCacheKey, string(encoded), 0); err != nil {
			log.Printf("sync: failed to store bulk sync summary: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"success": len(summary.Errors) == 0,
		"summary": summary,
	})
}

func (sc *SyncController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var in billing.CheckoutSessionInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid_payload"})
	}
	if err := sc.validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "validation_failed", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	raw, err := sc.svc.CreateCheckoutSession(ctx, in)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "checkout_session_failed", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "session": raw})
}

func (sc *SyncController) HandleCreateSubscription(c *fiber.Ctx) error {
	var in billing.SubscriptionInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid_payload"})
	}
	if err := sc.validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "validation_failed", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	raw, err := sc.svc.CreateSubscription(ctx, in)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "subscription_create_failed", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "subscription": raw})
}
