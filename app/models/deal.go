package models

import "time"

// Deal is a sales-pipeline record. SubscriptionRef links it to a mirrored
// provider subscription; the lifecycle synchronizer moves StageID and owns no
// other column.
type Deal struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"type:varchar(200);not null" json:"title"`
	StageID         uint      `gorm:"not null;index" json:"stage_id"`
	SubscriptionRef string    `gorm:"type:varchar(191);default:'';index" json:"subscription_ref"`
	PropertiesJSON  string    `gorm:"type:longtext" json:"properties_json"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
