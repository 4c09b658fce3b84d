package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncState keeps one row per sweep scope ("nyc_delta", "valuation", ...)
// with the delta cursor and the outcome of the last attempt.
type SyncState struct {
	Scope         string         `gorm:"primaryKey;type:varchar(64)"`
	Cursor        *string        `gorm:"type:text"`
	LastSuccessAt *time.Time     `gorm:"type:timestamptz"`
	LastAttemptAt *time.Time     `gorm:"type:timestamptz"`
	LastError     *string        `gorm:"type:text"`
	StatsJSON     datatypes.JSON `gorm:"type:jsonb"`
}

func (SyncState) TableName() string {
	return "sync_state"
}
