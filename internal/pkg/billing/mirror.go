package billing

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lexpraxis/LexPraxis/app/models"
)

// The entity mirror projects provider payloads into local canonical rows,
// keyed by the provider's own ID: a handful of indexed columns plus the full
// raw document, replaced wholesale on every upsert. Events for the same object
// may arrive in any order, so every write is last-write-wins full state, never
// an incremental diff. No cross-entity referential integrity is enforced; the
// mirror is a cache of provider truth, not a relational model.

var errMissingProviderID = errors.New("billing: payload is missing the provider object id")

type customerPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type productPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type pricePayload struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Active     bool   `json:"active"`
}

type subscriptionPayload struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

type invoicePayload struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Status       string `json:"status"`
	AmountDue    int64  `json:"amount_due"`
	AmountPaid   int64  `json:"amount_paid"`
	Currency     string `json:"currency"`
}

type paymentIntentPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Metadata struct {
		NumeroCNJ string `json:"numero_cnj"`
	} `json:"metadata"`
}

type checkoutSessionPayload struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func (s *Service) UpsertCustomerPayload(raw json.RawMessage) error {
	var p customerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}
	return s.repo.UpsertCustomer(&models.BillingCustomer{
		ProviderCustomerID: p.ID,
		Email:              p.Email,
		Name:               p.Name,
		RawPayloadJSON:     string(raw),
	})
}

func (s *Service) UpsertProductPayload(raw json.RawMessage) error {
	var p productPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}
	return s.repo.UpsertProduct(&models.BillingProduct{
		ProviderProductID: p.ID,
		Name:              p.Name,
		Active:            p.Active,
		RawPayloadJSON:    string(raw),
	})
}

func (s *Service) UpsertPricePayload(raw json.RawMessage) error {
	var p pricePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}
	return s.repo.UpsertPrice(&models.BillingPrice{
		ProviderPriceID:   p.ID,
		ProviderProductID: p.Product,
		UnitAmount:        p.UnitAmount,
		Currency:          p.Currency,
		Active:            p.Active,
		RawPayloadJSON:    string(raw),
	})
}

func (s *Service) UpsertSubscriptionPayload(raw json.RawMessage) error {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}
	return s.repo.UpsertSubscription(&models.BillingSubscription{
		ProviderSubscriptionID: p.ID,
		ProviderCustomerID:     p.Customer,
		Status:                 p.Status,
		CurrentPeriodStart:     unixToTimePtr(p.CurrentPeriodStart),
		CurrentPeriodEnd:       unixToTimePtr(p.CurrentPeriodEnd),
		CancelAtPeriodEnd:      p.CancelAtPeriodEnd,
		RawPayloadJSON:         string(raw),
	})
}

func (s *Service) UpsertInvoicePayload(raw json.RawMessage) error {
	var p invoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}
	return s.repo.UpsertInvoice(&models.BillingInvoice{
		ProviderInvoiceID:      p.ID,
		ProviderCustomerID:     p.Customer,
		ProviderSubscriptionID: p.Subscription,
		Status:                 p.Status,
		AmountDue:              p.AmountDue,
		AmountPaid:             p.AmountPaid,
		Currency:               p.Currency,
		RawPayloadJSON:         string(raw),
	})
}

func (s *Service) UpsertPaymentIntentPayload(raw json.RawMessage) error {
	var p paymentIntentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}
	return s.repo.UpsertPaymentIntent(&models.BillingPaymentIntent{
		ProviderPaymentIntentID: p.ID,
		ProviderCustomerID:      p.Customer,
		Status:                  p.Status,
		Amount:                  p.Amount,
		Currency:                p.Currency,
		RawPayloadJSON:          string(raw),
	})
}

func (s *Service) UpsertCheckoutSessionPayload(raw json.RawMessage) error {
	var p checkoutSessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}
	return s.repo.UpsertCheckoutSession(&models.BillingCheckoutSession{
		ProviderSessionID:  p.ID,
		ProviderCustomerID: p.Customer,
		Status:             p.Status,
		PaymentStatus:      p.PaymentStatus,
		RawPayloadJSON:     string(raw),
	})
}

func unixToTimePtr(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
