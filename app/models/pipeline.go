package models

import "time"

// Pipeline kinds this subsystem drives stage moves in.
const (
	PipelineKindSales   = "sales"
	PipelineKindFinance = "finance"
)

// Stage flags the lifecycle synchronizer resolves target stages by.
const (
	StageFlagWon         = "won"
	StageFlagLost        = "lost"
	StageFlagPaid        = "paid"
	StageFlagCollections = "collections"
)

// Pipeline is a named stage sequence owned by the wider practice-management
// application. This subsystem only reads pipelines to resolve target stages.
type Pipeline struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Kind      string    `gorm:"type:varchar(16);not null;index" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PipelineStage is one position in a pipeline. Flag marks the stages the
// synchronizer targets (won/lost in sales, paid/collections in finance).
type PipelineStage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PipelineID uint      `gorm:"not null;index" json:"pipeline_id"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	Flag       string    `gorm:"type:varchar(16);default:'';index" json:"flag"`
	Position   int       `gorm:"default:0" json:"position"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
