package billing

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/lexpraxis/LexPraxis/app/models"
	"gorm.io/gorm"
)

// Service drives the event pipeline: ledger gate, mirror upsert, post-upsert
// lifecycle hooks, outcome recording. The ordering is structural: hooks are
// registered per event-type prefix and only ever run after their upsert
// succeeded, and the ledger outcome is written in a deferred step regardless
// of which branch ran.
type Service struct {
	repo   Repository
	client *Client
	routes []eventRoute

	now func() time.Time
}

// eventRoute binds an event-type prefix to its mirror upsert and an optional
// best-effort lifecycle hook.
type eventRoute struct {
	prefix string
	upsert func(json.RawMessage) error
	hook   func(eventType string, object json.RawMessage) error
}

// NewService creates a billing service from an injected repository and
// provider client.
func NewService(repo Repository, client *Client) *Service {
	s := &Service{
		repo:   repo,
		client: client,
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, client *Client) *Service {
	return NewService(NewRepository(db), client)
}

// registerRoutes builds the dispatch table. Longer prefixes sit before their
// shorter overlaps ("customer.subscription" before "customer") so the first
// match wins.
func (s *Service) registerRoutes() {
	s.routes = []eventRoute{
		{
			prefix: "customer.subscription",
			upsert: s.UpsertSubscriptionPayload,
			hook: func(_ string, object json.RawMessage) error {
				return s.syncSubscriptionLifecycle(object)
			},
		},
		{
			prefix: "customer",
			upsert: s.UpsertCustomerPayload,
		},
		{
			prefix: "product",
			upsert: s.UpsertProductPayload,
		},
		{
			prefix: "price",
			upsert: s.UpsertPricePayload,
		},
		{
			prefix: "invoice",
			upsert: s.UpsertInvoicePayload,
			hook: func(eventType string, object json.RawMessage) error {
				switch eventType {
				case "invoice.payment_succeeded":
					return s.syncPaymentLifecycle(object, true)
				case "invoice.payment_failed":
					return s.syncPaymentLifecycle(object, false)
				}
				return nil
			},
		},
		{
			prefix: "payment_intent",
			upsert: s.UpsertPaymentIntentPayload,
			hook: func(eventType string, object json.RawMessage) error {
				switch eventType {
				case "payment_intent.succeeded":
					return s.syncPaymentLifecycle(object, true)
				case "payment_intent.payment_failed":
					return s.syncPaymentLifecycle(object, false)
				}
				return nil
			},
		},
		{
			prefix: "checkout.session",
			upsert: s.UpsertCheckoutSessionPayload,
		},
	}
}

func (s *Service) routeFor(eventType string) *eventRoute {
	for i := range s.routes {
		if strings.HasPrefix(eventType, s.routes[i].prefix) {
			return &s.routes[i]
		}
	}
	return nil
}

// ProcessEvent runs one inbound delivery through the full pipeline. A non-nil
// error means the ledger gate itself could not be consulted or recorded; the
// caller must answer non-2xx so the provider redelivers. Every other outcome
// is a structured result behind a 200.
func (s *Service) ProcessEvent(ctx context.Context, event Event, payload []byte, signatureValid bool) (*EventResult, error) {
	_ = ctx
	eventID := strings.TrimSpace(event.ID)
	eventType := strings.TrimSpace(event.Type)
	if eventID == "" || eventType == "" {
		return nil, errors.New("billing: event envelope is missing id or type")
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		// Ledger unavailable: fail the delivery so the provider retries later.
		return nil, err
	}

	result := &EventResult{
		Received:  true,
		EventType: eventType,
		EventID:   eventID,
	}
	if !created {
		result.Reason = ReasonAlreadyProcessed
		return result, nil
	}

	var procErr error
	defer func() {
		errMsg := ""
		if procErr != nil {
			errMsg = procErr.Error()
		}
		if markErr := s.repo.MarkWebhookProcessed(stored.ID, errMsg); markErr != nil {
			log.Printf("billing: failed to record outcome for event %s: %v", eventID, markErr)
		}
	}()

	route := s.routeFor(eventType)
	if route == nil {
		result.Reason = ReasonIgnored
		return result, nil
	}

	procErr = route.upsert(event.Data.Object)
	if procErr != nil {
		result.Error = procErr.Error()
		return result, nil
	}

	// The mirror write is the authoritative outcome; stage movement is a
	// derived convenience reconcilable by a later bulk re-sync.
	if route.hook != nil {
		if hookErr := route.hook(eventType, event.Data.Object); hookErr != nil {
			log.Printf("billing: lifecycle sync failed for event %s (%s): %v", eventID, eventType, hookErr)
		}
	}

	result.Processed = true
	return result, nil
}
