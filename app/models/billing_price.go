package models

import "time"

// BillingPrice mirrors a provider price object.
type BillingPrice struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ProviderPriceID   string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_prices_provider_id" json:"provider_price_id"`
	ProviderProductID string    `gorm:"type:varchar(191);not null;default:'';index" json:"provider_product_id"`
	UnitAmount        int64     `gorm:"default:0" json:"unit_amount"`
	Currency          string    `gorm:"type:varchar(8);default:''" json:"currency"`
	Active            bool      `gorm:"default:true;index" json:"active"`
	RawPayloadJSON    string    `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
