package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/lexpraxis/LexPraxis/app/models"
)

// fakeRepository is an in-memory Repository for exercising the event pipeline
// without a database.
type fakeRepository struct {
	nextID uint

	events        map[string]*models.WebhookEvent
	customers     map[string]*models.BillingCustomer
	products      map[string]*models.BillingProduct
	prices        map[string]*models.BillingPrice
	subscriptions map[string]*models.BillingSubscription
	invoices      map[string]*models.BillingInvoice
	intents       map[string]*models.BillingPaymentIntent
	sessions      map[string]*models.BillingCheckoutSession

	stages map[string]*models.PipelineStage
	deals  []*models.Deal
	cases  []*models.LegalCase

	ledgerErr error
	upsertErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		events:        map[string]*models.WebhookEvent{},
		customers:     map[string]*models.BillingCustomer{},
		products:      map[string]*models.BillingProduct{},
		prices:        map[string]*models.BillingPrice{},
		subscriptions: map[string]*models.BillingSubscription{},
		invoices:      map[string]*models.BillingInvoice{},
		intents:       map[string]*models.BillingPaymentIntent{},
		sessions:      map[string]*models.BillingCheckoutSession{},
		stages:        map[string]*models.PipelineStage{},
	}
}

func (r *fakeRepository) addStage(kind, flag, name string) *models.PipelineStage {
	r.nextID++
	stage := &models.PipelineStage{Name: name, Flag: flag}
	stage.ID = r.nextID
	r.stages[kind+"/"+flag] = stage
	return stage
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if r.ledgerErr != nil {
		return false, nil, r.ledgerErr
	}
	if existing, ok := r.events[event.ProviderEventID]; ok {
		return false, existing, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[event.ProviderEventID] = event
	return true, event, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, evt := range r.events {
		if evt.ID == id {
			now := time.Now()
			evt.ProcessedAt = &now
			evt.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepository) UpsertCustomer(c *models.BillingCustomer) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if prev, ok := r.customers[c.ProviderCustomerID]; ok {
		c.FailedPaymentAttempts = prev.FailedPaymentAttempts
		c.LastPaymentAt = prev.LastPaymentAt
		c.LastPaymentAmount = prev.LastPaymentAmount
		c.LastPaymentStatus = prev.LastPaymentStatus
	}
	r.customers[c.ProviderCustomerID] = c
	return nil
}

func (r *fakeRepository) UpsertProduct(p *models.BillingProduct) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.products[p.ProviderProductID] = p
	return nil
}

func (r *fakeRepository) UpsertPrice(p *models.BillingPrice) error {
	r.prices[p.ProviderPriceID] = p
	return nil
}

func (r *fakeRepository) UpsertSubscription(s *models.BillingSubscription) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.subscriptions[s.ProviderSubscriptionID] = s
	return nil
}

func (r *fakeRepository) UpsertInvoice(i *models.BillingInvoice) error {
	r.invoices[i.ProviderInvoiceID] = i
	return nil
}

func (r *fakeRepository) UpsertPaymentIntent(pi *models.BillingPaymentIntent) error {
	r.intents[pi.ProviderPaymentIntentID] = pi
	return nil
}

func (r *fakeRepository) UpsertCheckoutSession(cs *models.BillingCheckoutSession) error {
	r.sessions[cs.ProviderSessionID] = cs
	return nil
}

func (r *fakeRepository) RecordCustomerPaymentSuccess(providerCustomerID string, paidAt time.Time, amount int64, status string) error {
	if c, ok := r.customers[providerCustomerID]; ok {
		c.LastPaymentAt = &paidAt
		c.LastPaymentAmount = amount
		c.LastPaymentStatus = status
	}
	return nil
}

func (r *fakeRepository) RecordCustomerPaymentFailure(providerCustomerID string, attemptedAt time.Time, status string) error {
	if c, ok := r.customers[providerCustomerID]; ok {
		c.LastPaymentAt = &attemptedAt
		c.LastPaymentStatus = status
		c.FailedPaymentAttempts++
	}
	return nil
}

func (r *fakeRepository) FindStageByFlag(pipelineKind, flag string) (*models.PipelineStage, error) {
	if stage, ok := r.stages[pipelineKind+"/"+flag]; ok {
		return stage, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) MoveDealsBySubscriptionRef(subscriptionRef string, stageID uint) (int64, error) {
	var moved int64
	for _, deal := range r.deals {
		if deal.SubscriptionRef == subscriptionRef {
			deal.StageID = stageID
			moved++
		}
	}
	return moved, nil
}

func (r *fakeRepository) MoveCaseByCaseNumber(caseNumber string, stageID uint) (bool, error) {
	for _, lc := range r.cases {
		if lc.CaseNumber == caseNumber {
			lc.StageID = stageID
			return true, nil
		}
	}
	return false, nil
}

func newTestService(repo *fakeRepository) *Service {
	s := NewService(repo, nil)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func eventFromJSON(t *testing.T, payload string) Event {
	t.Helper()
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		t.Fatalf("invalid test payload: %v", err)
	}
	return evt
}

func TestProcessEvent_DuplicateDeliveryIsIgnored(t *testing.T) {
	repo := newFakeRepository()
	won := repo.addStage(models.PipelineKindSales, models.StageFlagWon, "Closed Won")
	repo.addStage(models.PipelineKindSales, models.StageFlagLost, "Closed Lost")
	deal := &models.Deal{Title: "Retainer", SubscriptionRef: "sub_1", StageID: 1}
	repo.deals = append(repo.deals, deal)

	svc := newTestService(repo)
	payload := `{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","customer":"cus_1","status":"active","metadata":{}}}}`
	evt := eventFromJSON(t, payload)

	first, err := svc.ProcessEvent(context.Background(), evt, []byte(payload), true)
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	assert.True(t, first.Processed)
	assert.Empty(t, first.Reason)
	assert.Equal(t, won.ID, deal.StageID, "deal should move to the won stage")
	assert.Equal(t, "active", repo.subscriptions["sub_1"].Status)
	if assert.NotNil(t, repo.events["evt_1"].ProcessedAt) {
		assert.Empty(t, repo.events["evt_1"].ProcessingError)
	}

	// Redeliver the same event after moving the deal elsewhere by hand. The
	// ledger must stop the pipeline before any side effect reruns.
	deal.StageID = 99
	second, err := svc.ProcessEvent(context.Background(), evt, []byte(payload), true)
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	assert.True(t, second.Received)
	assert.False(t, second.Processed)
	assert.Equal(t, ReasonAlreadyProcessed, second.Reason)
	assert.Equal(t, uint(99), deal.StageID, "duplicate must not re-run the stage move")
}

func TestProcessEvent_SubscriptionCanceledMovesDealToLost(t *testing.T) {
	repo := newFakeRepository()
	repo.addStage(models.PipelineKindSales, models.StageFlagWon, "Closed Won")
	lost := repo.addStage(models.PipelineKindSales, models.StageFlagLost, "Closed Lost")
	deal := &models.Deal{Title: "Retainer", SubscriptionRef: "sub_2"}
	repo.deals = append(repo.deals, deal)

	svc := newTestService(repo)
	payload := `{"id":"evt_2","type":"customer.subscription.deleted","data":{"object":{"id":"sub_2","status":"canceled"}}}`

	result, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.True(t, result.Processed)
	assert.Equal(t, lost.ID, deal.StageID)
}

func TestProcessEvent_PaymentFailureMovesCaseToCollections(t *testing.T) {
	repo := newFakeRepository()
	collections := repo.addStage(models.PipelineKindFinance, models.StageFlagCollections, "Collections")
	repo.addStage(models.PipelineKindFinance, models.StageFlagPaid, "Paid")
	repo.customers["cus_1"] = &models.BillingCustomer{ProviderCustomerID: "cus_1"}
	lc := &models.LegalCase{CaseNumber: "123", Title: "Processo"}
	repo.cases = append(repo.cases, lc)

	svc := newTestService(repo)
	payload := `{"id":"evt_3","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","customer":"cus_1","status":"requires_payment_method","amount":5000,"metadata":{"numero_cnj":"123"}}}}`

	result, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.True(t, result.Processed)
	assert.Equal(t, collections.ID, lc.StageID)
	assert.Equal(t, 1, repo.customers["cus_1"].FailedPaymentAttempts)
	assert.Equal(t, "requires_payment_method", repo.customers["cus_1"].LastPaymentStatus)
	assert.NotNil(t, repo.intents["pi_1"])
}

func TestProcessEvent_PaymentSuccessMovesCaseToPaid(t *testing.T) {
	repo := newFakeRepository()
	paid := repo.addStage(models.PipelineKindFinance, models.StageFlagPaid, "Paid")
	repo.customers["cus_1"] = &models.BillingCustomer{ProviderCustomerID: "cus_1", FailedPaymentAttempts: 2}
	lc := &models.LegalCase{CaseNumber: "0001234-56.2024.8.26.0100"}
	repo.cases = append(repo.cases, lc)

	svc := newTestService(repo)
	payload := `{"id":"evt_4","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1","customer":"cus_1","status":"paid","amount_due":5000,"amount_paid":5000,"metadata":{"numero_cnj":"0001234-56.2024.8.26.0100"}}}}`

	result, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.True(t, result.Processed)
	assert.Equal(t, paid.ID, lc.StageID)
	c := repo.customers["cus_1"]
	assert.Equal(t, int64(5000), c.LastPaymentAmount)
	assert.Equal(t, "paid", c.LastPaymentStatus)
	assert.NotNil(t, c.LastPaymentAt)
	assert.Equal(t, 2, c.FailedPaymentAttempts, "success does not reset the failure counter")
}

func TestProcessEvent_MirrorReplacesFullState(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	a := `{"id":"evt_5","type":"customer.updated","data":{"object":{"id":"cus_9","email":"old@firm.example","name":"Old Name"}}}`
	b := `{"id":"evt_6","type":"customer.updated","data":{"object":{"id":"cus_9","email":"new@firm.example","name":"New Name"}}}`

	for _, payload := range []string{a, b} {
		if _, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	c := repo.customers["cus_9"]
	assert.Equal(t, "new@firm.example", c.Email)
	assert.Equal(t, "New Name", c.Name)
	assert.Contains(t, c.RawPayloadJSON, "new@firm.example")
}

func TestProcessEvent_UnroutedTypeIsAcknowledgedAndIgnored(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	payload := `{"id":"evt_7","type":"balance.available","data":{"object":{"object":"balance"}}}`

	result, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.True(t, result.Received)
	assert.False(t, result.Processed)
	assert.Equal(t, ReasonIgnored, result.Reason)
	assert.NotNil(t, repo.events["evt_7"].ProcessedAt, "ignored events are still recorded in the ledger")
}

func TestProcessEvent_LedgerErrorFailsDelivery(t *testing.T) {
	repo := newFakeRepository()
	repo.ledgerErr = errors.New("connection refused")
	svc := newTestService(repo)
	payload := `{"id":"evt_8","type":"customer.created","data":{"object":{"id":"cus_1"}}}`

	result, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestProcessEvent_UpsertErrorRecordedNotProcessed(t *testing.T) {
	repo := newFakeRepository()
	repo.upsertErr = errors.New("mirror write failed")
	svc := newTestService(repo)
	payload := `{"id":"evt_9","type":"customer.created","data":{"object":{"id":"cus_1"}}}`

	result, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.False(t, result.Processed)
	assert.Equal(t, "mirror write failed", result.Error)
	assert.Equal(t, "mirror write failed", repo.events["evt_9"].ProcessingError)
}

func TestProcessEvent_LifecycleFailureDoesNotFailEvent(t *testing.T) {
	// No sales stages seeded, so the subscription hook cannot resolve a
	// target stage. The mirror write still counts as processed.
	repo := newFakeRepository()
	svc := newTestService(repo)
	payload := `{"id":"evt_10","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","status":"active"}}}`

	result, err := svc.ProcessEvent(context.Background(), eventFromJSON(t, payload), []byte(payload), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.True(t, result.Processed)
	assert.Equal(t, "active", repo.subscriptions["sub_1"].Status)
	assert.Empty(t, repo.events["evt_10"].ProcessingError)
}

func TestProcessEvent_MissingEnvelopeFields(t *testing.T) {
	svc := newTestService(newFakeRepository())

	_, err := svc.ProcessEvent(context.Background(), Event{Type: "customer.created"}, nil, true)
	assert.Error(t, err)

	_, err = svc.ProcessEvent(context.Background(), Event{ID: "evt_11"}, nil, true)
	assert.Error(t, err)
}

func TestSubscriptionTargetFlag(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{status: "active", want: models.StageFlagWon},
		{status: "Active", want: models.StageFlagWon},
		{status: "canceled", want: models.StageFlagLost},
		{status: "past_due", want: models.StageFlagLost},
		{status: "unpaid", want: models.StageFlagLost},
		{status: "trialing", want: ""},
		{status: "incomplete", want: ""},
		{status: "paused", want: ""},
		{status: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, subscriptionTargetFlag(tt.status), "status %q", tt.status)
	}
}

func TestRouteFor_LongestPrefixWins(t *testing.T) {
	svc := newTestService(newFakeRepository())

	route := svc.routeFor("customer.subscription.updated")
	if route == nil {
		t.Fatalf("expected a route for subscription events")
	}
	assert.Equal(t, "customer.subscription", route.prefix)

	route = svc.routeFor("customer.created")
	if route == nil {
		t.Fatalf("expected a route for customer events")
	}
	assert.Equal(t, "customer", route.prefix)

	assert.Nil(t, svc.routeFor("charge.refunded"))
}
