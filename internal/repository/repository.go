package repository

import (
	"context"

	"propwatch/internal/models"
)

// PropertyRef is the slice of a property the sweep needs: id plus the two
// external identifiers.
type PropertyRef struct {
	ID  int64
	BIN *string
	BBL *string
}

// HasIdentifier reports whether at least one upstream dataset can be queried
// for this property.
func (p PropertyRef) HasIdentifier() bool {
	return (p.BIN != nil && *p.BIN != "") || (p.BBL != nil && *p.BBL != "")
}

type ListIngestionRunsParams struct {
	JobType    string
	Status     string
	PropertyID *int64
	Limit      int
	Offset     int
}

// Repository is the persistence surface of the ingestion pipeline. Properties
// are read-only here; signals are written exclusively through UpsertSignal.
type Repository interface {
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	ListSyncableProperties(ctx context.Context) ([]PropertyRef, error)

	// UpsertSignal inserts or updates by (source, external_id). A signal
	// without an external id is skipped (no write, no error); skipped reports
	// that so callers can count drops.
	UpsertSignal(ctx context.Context, signal *models.Signal) (skipped bool, err error)

	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)

	InsertIngestionRun(ctx context.Context, run *models.IngestionRun) error
	UpdateIngestionRun(ctx context.Context, run *models.IngestionRun) error
	ListIngestionRuns(ctx context.Context, params ListIngestionRunsParams) ([]models.IngestionRun, int64, error)
}
