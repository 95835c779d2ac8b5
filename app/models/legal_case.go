package models

import "time"

// LegalCase is a collections/finance-pipeline record identified by its CNJ
// case number. Payment events tagged with metadata.numero_cnj move its stage
// pointer between the paid and collections stages.
type LegalCase struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CaseNumber string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_legal_cases_case_number" json:"case_number"`
	Title      string    `gorm:"type:varchar(200);default:''" json:"title"`
	StageID    uint      `gorm:"not null;index" json:"stage_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
