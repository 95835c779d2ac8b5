package models

import "time"

// BillingCheckoutSession mirrors a provider checkout-session object.
type BillingCheckoutSession struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ProviderSessionID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_checkout_sessions_provider_id" json:"provider_session_id"`
	ProviderCustomerID string   `gorm:"type:varchar(191);not null;default:'';index" json:"provider_customer_id"`
	Status            string    `gorm:"type:varchar(32);not null;default:'';index" json:"status"`
	PaymentStatus     string    `gorm:"type:varchar(32);default:''" json:"payment_status"`
	RawPayloadJSON    string    `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
