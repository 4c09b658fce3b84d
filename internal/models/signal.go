package models

import (
	"time"

	"gorm.io/datatypes"
)

// Signal types written by the ingestion pipeline.
const (
	SignalTypePermit    = "permit"
	SignalTypeViolation = "violation"
	SignalTypeComplaint = "complaint"
	SignalTypeHazard    = "hazard"
	SignalTypeValuation = "valuation"
	SignalTypeCondition = "condition"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const SourceNYCOpenData = "nyc_open_data"

// Signal is one normalized external event (permit filed, violation issued,
// complaint lodged, ...) attached to a property. Rows are created and updated
// only by the ingestion pipeline, keyed by (source, external_id); closure is a
// status/is_active transition, never a delete.
type Signal struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	PropertyID int64  `gorm:"not null;index"`
	SignalType string `gorm:"type:varchar(32);not null;index"`

	// (Source, ExternalID) is the natural key for upsert. The unique index is
	// composite on purpose: external ids are only unique per provider.
	Source     string  `gorm:"type:varchar(64);not null;uniqueIndex:uniq_signals_source_external_id,priority:1"`
	ExternalID *string `gorm:"type:varchar(255);uniqueIndex:uniq_signals_source_external_id,priority:2"`

	EventDate   *time.Time `gorm:"type:date;index"`
	Status      string     `gorm:"type:varchar(64)"`
	Severity    string     `gorm:"type:varchar(16);not null;default:low;index"`
	Title       string     `gorm:"type:varchar(512)"`
	Description string     `gorm:"type:text"`

	RawPayload       datatypes.JSON `gorm:"type:jsonb"`
	NormalizedFields datatypes.JSON `gorm:"type:jsonb"`

	IsActive   bool       `gorm:"not null;default:true;index"`
	ResolvedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt  *time.Time `gorm:"type:timestamptz"`
}

func (Signal) TableName() string {
	return "signals"
}
