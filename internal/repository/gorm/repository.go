package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"propwatch/internal/models"
	"propwatch/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var prop models.Property
	err := s.db.WithContext(ctx).First(&prop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

func (s *Store) ListSyncableProperties(ctx context.Context) ([]repository.PropertyRef, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var refs []repository.PropertyRef
	err := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("id", "bin", "bbl").
		Order("id asc").
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// UpsertSignal writes one signal keyed by (source, external_id). The conflict
// target matches the composite unique index on signals, so concurrent syncs
// of the same record settle on a single row (last write wins).
func (s *Store) UpsertSignal(ctx context.Context, signal *models.Signal) (bool, error) {
	if s == nil || s.db == nil || signal == nil {
		return true, nil
	}
	if signal.ExternalID == nil || *signal.ExternalID == "" {
		return true, nil
	}
	now := time.Now().UTC()
	signal.UpdatedAt = &now
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"property_id",
			"signal_type",
			"event_date",
			"status",
			"severity",
			"title",
			"description",
			"raw_payload",
			"normalized_fields",
			"is_active",
			"resolved_at",
			"updated_at",
		}),
	}).Create(signal).Error
	return false, err
}

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var state models.SyncState
	err := s.db.WithContext(ctx).First(&state, "scope = ?", scope).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil || state.Scope == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor",
			"last_success_at",
			"last_attempt_at",
			"last_error",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var states []models.SyncState
	if err := s.db.WithContext(ctx).Order("scope asc").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (s *Store) InsertIngestionRun(ctx context.Context, run *models.IngestionRun) error {
	if s == nil || s.db == nil || run == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *Store) UpdateIngestionRun(ctx context.Context, run *models.IngestionRun) error {
	if s == nil || s.db == nil || run == nil || run.ID == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.IngestionRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":         run.Status,
			"completed_at":   run.CompletedAt,
			"error_message":  run.ErrorMessage,
			"result_summary": run.ResultSummary,
		}).Error
}

func (s *Store) ListIngestionRuns(ctx context.Context, params repository.ListIngestionRunsParams) ([]models.IngestionRun, int64, error) {
	if s == nil || s.db == nil {
		return nil, 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.IngestionRun{})
	if params.JobType != "" {
		query = query.Where("job_type = ?", params.JobType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.PropertyID != nil {
		query = query.Where("property_id = ?", *params.PropertyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	var runs []models.IngestionRun
	err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
