package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Property is a tracked real-estate asset. The ingestion pipeline treats the
// table as read-only apart from risk score updates; BIN and BBL are the NYC
// identifiers the open-data datasets are queried by.
type Property struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64  `gorm:"not null;index"`
	Name           string `gorm:"type:varchar(255)"`
	AddressLine1   string `gorm:"type:varchar(255);not null"`
	AddressLine2   string `gorm:"type:varchar(255)"`
	City           string `gorm:"type:varchar(128);not null"`
	State          string `gorm:"type:varchar(2);not null"`
	PostalCode     string `gorm:"type:varchar(16);not null"`

	// Building Identification Number; building-level datasets key on it.
	BIN *string `gorm:"type:varchar(16);index"`
	// Borough-Block-Lot; parcel-level datasets key on it.
	BBL *string `gorm:"type:varchar(16);index"`

	RiskScore *decimal.Decimal `gorm:"type:numeric(5,2)"`

	CreatedAt time.Time      `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt *time.Time     `gorm:"type:timestamptz"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Property) TableName() string {
	return "properties"
}
