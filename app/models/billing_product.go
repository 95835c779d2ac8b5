package models

import "time"

// BillingProduct mirrors a provider product object.
type BillingProduct struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ProviderProductID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_products_provider_id" json:"provider_product_id"`
	Name              string    `gorm:"type:varchar(200);default:''" json:"name"`
	Active            bool      `gorm:"default:true;index" json:"active"`
	RawPayloadJSON    string    `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
