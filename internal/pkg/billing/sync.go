package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	bulkSyncPageSize = 100
	// bulkSyncMaxItems caps one run per collection to bound worst-case latency
	// of a single invocation. No resumption token is persisted across runs;
	// bulk sync is a catch-up tool, not a backlog drain.
	bulkSyncMaxItems = 500
	// recentWindow bounds the customer/subscription collections to
	// recently-created objects.
	recentWindow = 30 * 24 * time.Hour
)

// BulkSync repairs mirror staleness by paging the provider's collections
// through the same upserts the webhook path uses. It never triggers lifecycle
// hooks; stage movement stays event-driven.
func (s *Service) BulkSync(ctx context.Context) *SyncSummary {
	summary := &SyncSummary{}
	createdAfter := s.now().Add(-recentWindow).Unix()

	collections := []struct {
		name   string
		path   string
		params url.Values
		upsert func(json.RawMessage) error
		count  *int
	}{
		{name: "products", path: "/products", upsert: s.UpsertProductPayload, count: &summary.Products},
		{name: "prices", path: "/prices", upsert: s.UpsertPricePayload, count: &summary.Prices},
		{
			name:   "customers",
			path:   "/customers",
			params: url.Values{"created[gte]": {strconv.FormatInt(createdAfter, 10)}},
			upsert: s.UpsertCustomerPayload,
			count:  &summary.Customers,
		},
		{
			name:   "subscriptions",
			path:   "/subscriptions",
			params: url.Values{"created[gte]": {strconv.FormatInt(createdAfter, 10)}},
			upsert: s.UpsertSubscriptionPayload,
			count:  &summary.Subscriptions,
		},
	}

	for _, col := range collections {
		n, err := s.syncCollection(ctx, col.path, col.params, col.upsert)
		*col.count = n
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", col.name, err))
		}
	}
	return summary
}

// syncCollection pages one collection endpoint with starting_after cursors up
// to the per-run cap. Items that fail to upsert stop the run so the error
// surfaces instead of silently skipping a page.
func (s *Service) syncCollection(ctx context.Context, path string, base url.Values, upsert func(json.RawMessage) error) (int, error) {
	count := 0
	cursor := ""

	for count < bulkSyncMaxItems {
		params := url.Values{}
		for k, vs := range base {
			for _, v := range vs {
				params.Add(k, v)
			}
		}
		params.Set("limit", strconv.Itoa(bulkSyncPageSize))
		if cursor != "" {
			params.Set("starting_after", cursor)
		}

		page, err := s.client.List(ctx, path, params)
		if err != nil {
			return count, err
		}
		if len(page.Data) == 0 {
			break
		}

		for _, raw := range page.Data {
			if err := upsert(raw); err != nil {
				return count, err
			}
			count++
			var obj struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
				cursor = obj.ID
			}
			if count >= bulkSyncMaxItems {
				break
			}
		}

		if !page.HasMore || cursor == "" {
			break
		}
	}
	return count, nil
}

// SyncCustomer re-fetches one customer from the provider and republishes the
// mirror upsert.
func (s *Service) SyncCustomer(ctx context.Context, customerID string) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return fmt.Errorf("billing: customer id is required")
	}
	raw, err := s.client.Request(ctx, http.MethodGet, "/customers/"+customerID, nil)
	if err != nil {
		return err
	}
	return s.UpsertCustomerPayload(raw)
}

// SearchCustomers queries the provider's customer search endpoint and returns
// the raw result objects.
func (s *Service) SearchCustomers(ctx context.Context, query string) ([]json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("billing: search query is required")
	}
	page, err := s.client.List(ctx, "/customers/search", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// CheckoutSessionInput carries operator parameters for session creation.
type CheckoutSessionInput struct {
	PriceID    string `json:"price_id" validate:"required"`
	CustomerID string `json:"customer_id"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
	CaseNumber string `json:"case_number"`
}

// CreateCheckoutSession creates a provider checkout session and mirrors the
// response. The idempotency key guards against operator double-submits.
func (s *Service) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("mode", "subscription")
	params.Set("line_items[0][price]", in.PriceID)
	params.Set("line_items[0][quantity]", "1")
	params.Set("success_url", in.SuccessURL)
	params.Set("cancel_url", in.CancelURL)
	if in.CustomerID != "" {
		params.Set("customer", in.CustomerID)
	}
	if in.CaseNumber != "" {
		params.Set("metadata[numero_cnj]", in.CaseNumber)
		params.Set("subscription_data[metadata][numero_cnj]", in.CaseNumber)
	}

	raw, err := s.client.RequestIdempotent(ctx, http.MethodPost, "/checkout/sessions", params, uuid.NewString())
	if err != nil {
		return nil, err
	}
	if err := s.UpsertCheckoutSessionPayload(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// SubscriptionInput carries operator parameters for subscription creation.
type SubscriptionInput struct {
	CustomerID string `json:"customer_id" validate:"required"`
	PriceID    string `json:"price_id" validate:"required"`
	CaseNumber string `json:"case_number"`
}

// CreateSubscription creates a provider subscription and mirrors the response.
func (s *Service) CreateSubscription(ctx context.Context, in SubscriptionInput) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("customer", in.CustomerID)
	params.Set("items[0][price]", in.PriceID)
	if in.CaseNumber != "" {
		params.Set("metadata[numero_cnj]", in.CaseNumber)
	}

	raw, err := s.client.RequestIdempotent(ctx, http.MethodPost, "/subscriptions", params, uuid.NewString())
	if err != nil {
		return nil, err
	}
	if err := s.UpsertSubscriptionPayload(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
