package models

import "time"

// Environment values a Secret row can be scoped to.
const (
	EnvironmentDev  = "dev"
	EnvironmentProd = "prod"
)

// Secret is an environment-scoped credential or dynamic config value. Rows are
// unique per (name, environment) so dev and prod can carry the same key names.
type Secret struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:secret_name;type:varchar(191);not null;index:ux_secrets_name_environment,unique,priority:1" json:"name"`
	Value       string    `gorm:"type:text;not null" json:"-"`
	Description string    `gorm:"type:varchar(500);default:''" json:"description"`
	Environment string    `gorm:"type:varchar(16);not null;index:ux_secrets_name_environment,unique,priority:2" json:"environment"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
