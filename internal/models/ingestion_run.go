package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// IngestionRun is the job-history row recorded per orchestrator invocation.
// ResultSummary carries per-dataset fetched/upserted/dropped counts plus any
// dataset errors, so a partially failed property sync stays observable.
type IngestionRun struct {
	ID            string         `gorm:"primaryKey;type:uuid"`
	JobType       string         `gorm:"type:varchar(128);not null;index"`
	PropertyID    *int64         `gorm:"index"`
	Status        string         `gorm:"type:varchar(16);not null;default:pending;index"`
	StartedAt     *time.Time     `gorm:"type:timestamptz"`
	CompletedAt   *time.Time     `gorm:"type:timestamptz"`
	ErrorMessage  *string        `gorm:"type:text"`
	ResultSummary datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (IngestionRun) TableName() string {
	return "ingestion_runs"
}
