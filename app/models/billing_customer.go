package models

import "time"

// BillingCustomer mirrors a provider customer object. The indexed columns are a
// convenience projection; RawPayloadJSON always holds the provider's full
// current representation and is replaced wholesale on every upsert.
//
// The last-payment columns are written by the payment lifecycle synchronizer,
// not by the mirror upsert, so a mirror replay does not reset them.
type BillingCustomer struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	ProviderCustomerID   string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_customers_provider_id" json:"provider_customer_id"`
	Email                string     `gorm:"type:varchar(200);default:'';index" json:"email"`
	Name                 string     `gorm:"type:varchar(200);default:''" json:"name"`
	RawPayloadJSON       string     `gorm:"type:longtext" json:"raw_payload_json"`
	LastPaymentAt        *time.Time `gorm:"type:timestamp;default:null" json:"last_payment_at,omitempty"`
	LastPaymentAmount    int64      `gorm:"default:0" json:"last_payment_amount"`
	LastPaymentStatus    string     `gorm:"type:varchar(32);default:''" json:"last_payment_status"`
	FailedPaymentAttempts int       `gorm:"default:0" json:"failed_payment_attempts"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
