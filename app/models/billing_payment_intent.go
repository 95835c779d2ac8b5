package models

import "time"

// BillingPaymentIntent mirrors a provider payment-intent object.
type BillingPaymentIntent struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	ProviderPaymentIntentID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_payment_intents_provider_id" json:"provider_payment_intent_id"`
	ProviderCustomerID      string    `gorm:"type:varchar(191);not null;default:'';index" json:"provider_customer_id"`
	Status                  string    `gorm:"type:varchar(32);not null;default:'';index" json:"status"`
	Amount                  int64     `gorm:"default:0" json:"amount"`
	Currency                string    `gorm:"type:varchar(8);default:''" json:"currency"`
	RawPayloadJSON          string    `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt               time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
