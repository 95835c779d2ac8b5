package billing

import (
	"time"

	"github.com/lexpraxis/LexPraxis/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	// Idempotency ledger
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error

	// Entity mirror
	UpsertCustomer(c *models.BillingCustomer) error
	UpsertProduct(p *models.BillingProduct) error
	UpsertPrice(p *models.BillingPrice) error
	UpsertSubscription(s *models.BillingSubscription) error
	UpsertInvoice(i *models.BillingInvoice) error
	UpsertPaymentIntent(pi *models.BillingPaymentIntent) error
	UpsertCheckoutSession(cs *models.BillingCheckoutSession) error

	// Lifecycle synchronization
	RecordCustomerPaymentSuccess(providerCustomerID string, paidAt time.Time, amount int64, status string) error
	RecordCustomerPaymentFailure(providerCustomerID string, attemptedAt time.Time, status string) error
	FindStageByFlag(pipelineKind, flag string) (*models.PipelineStage, error)
	MoveDealsBySubscriptionRef(subscriptionRef string, stageID uint) (int64, error)
	MoveCaseByCaseNumber(caseNumber string, stageID uint) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateWebhookEventIfNotExists atomically claims an event by its provider ID.
// The unique index on provider_event_id resolves races between concurrent
// deliveries of the same event at the store level; no application lock exists.
func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkWebhookProcessed records the terminal outcome. It is safe to call after
// a partially failed run; the row keeps existing so duplicates still resolve
// to "already seen".
func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) UpsertCustomer(c *models.BillingCustomer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email",
			"name",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(c).Error
}

func (r *gormRepository) UpsertProduct(p *models.BillingProduct) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"active",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(p).Error
}

func (r *gormRepository) UpsertPrice(p *models.BillingPrice) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_price_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_product_id",
			"unit_amount",
			"currency",
			"active",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(p).Error
}

func (r *gormRepository) UpsertSubscription(s *models.BillingSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_customer_id",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(s).Error
}

func (r *gormRepository) UpsertInvoice(i *models.BillingInvoice) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_invoice_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_customer_id",
			"provider_subscription_id",
			"status",
			"amount_due",
			"amount_paid",
			"currency",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(i).Error
}

func (r *gormRepository) UpsertPaymentIntent(pi *models.BillingPaymentIntent) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_payment_intent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_customer_id",
			"status",
			"amount",
			"currency",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(pi).Error
}

func (r *gormRepository) UpsertCheckoutSession(cs *models.BillingCheckoutSession) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_customer_id",
			"status",
			"payment_status",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(cs).Error
}

func (r *gormRepository) RecordCustomerPaymentSuccess(providerCustomerID string, paidAt time.Time, amount int64, status string) error {
	return r.db.Model(&models.BillingCustomer{}).
		Where("provider_customer_id = ?", providerCustomerID).
		Updates(map[string]interface{}{
			"last_payment_at":     &paidAt,
			"last_payment_amount": amount,
			"last_payment_status": status,
		}).Error
}

// RecordCustomerPaymentFailure stamps last-attempt metadata and increments the
// failed-attempt counter in one statement so concurrent failures never lose an
// increment.
func (r *gormRepository) RecordCustomerPaymentFailure(providerCustomerID string, attemptedAt time.Time, status string) error {
	return r.db.Model(&models.BillingCustomer{}).
		Where("provider_customer_id = ?", providerCustomerID).
		Updates(map[string]interface{}{
			"last_payment_at":         &attemptedAt,
			"last_payment_status":     status,
			"failed_payment_attempts": gorm.Expr("failed_payment_attempts + 1"),
		}).Error
}

func (r *gormRepository) FindStageByFlag(pipelineKind, flag string) (*models.PipelineStage, error) {
	var stage models.PipelineStage
	err := r.db.
		Joins("JOIN pipelines ON pipelines.id = pipeline_stages.pipeline_id").
		Where("pipelines.kind = ? AND pipeline_stages.flag = ?", pipelineKind, flag).
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// MoveDealsBySubscriptionRef moves every deal referencing the subscription to
// the target stage. Re-moving a deal already there is a no-op update.
func (r *gormRepository) MoveDealsBySubscriptionRef(subscriptionRef string, stageID uint) (int64, error) {
	tx := r.db.Model(&models.Deal{}).
		Where("subscription_ref = ?", subscriptionRef).
		Update("stage_id", stageID)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) MoveCaseByCaseNumber(caseNumber string, stageID uint) (bool, error) {
	tx := r.db.Model(&models.LegalCase{}).
		Where("case_number = ?", caseNumber).
		Update("stage_id", stageID)
	return tx.RowsAffected > 0, tx.Error
}
