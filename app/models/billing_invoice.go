package models

import "time"

// BillingInvoice mirrors a provider invoice object.
type BillingInvoice struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	ProviderInvoiceID      string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_invoices_provider_id" json:"provider_invoice_id"`
	ProviderCustomerID     string    `gorm:"type:varchar(191);not null;default:'';index" json:"provider_customer_id"`
	ProviderSubscriptionID string    `gorm:"type:varchar(191);not null;default:'';index" json:"provider_subscription_id"`
	Status                 string    `gorm:"type:varchar(32);not null;default:'';index" json:"status"`
	AmountDue              int64     `gorm:"default:0" json:"amount_due"`
	AmountPaid             int64     `gorm:"default:0" json:"amount_paid"`
	Currency               string    `gorm:"type:varchar(8);default:''" json:"currency"`
	RawPayloadJSON         string    `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
