package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"propwatch/internal/models"
	"propwatch/internal/repository"
)

// DatasetStats is one dataset's slice of a run summary.
type DatasetStats struct {
	Fetched  int    `json:"fetched"`
	Upserted int    `json:"upserted"`
	Dropped  int    `json:"dropped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunSummary aggregates per-dataset outcomes for one orchestrator invocation.
type RunSummary struct {
	Datasets map[string]DatasetStats `json:"datasets,omitempty"`
	Skipped  bool                    `json:"skipped,omitempty"`
	Reason   string                  `json:"reason,omitempty"`
}

func NewRunSummary() *RunSummary {
	return &RunSummary{Datasets: map[string]DatasetStats{}}
}

func (s *RunSummary) Record(dataset string, stats DatasetStats) {
	if s.Datasets == nil {
		s.Datasets = map[string]DatasetStats{}
	}
	s.Datasets[dataset] = stats
}

func (s *RunSummary) Fields() []zap.Field {
	names := make([]string, 0, len(s.Datasets))
	for name := range s.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]zap.Field, 0, len(names))
	for _, name := range names {
		stats := s.Datasets[name]
		fields = append(fields, zap.Int(name+"_upserted", stats.Upserted))
	}
	return fields
}

// runRecorder writes the ingestion_runs job-history rows around one
// orchestrator invocation. Recording failures never fail the run itself.
type runRecorder struct {
	repo   repository.Repository
	logger *zap.Logger
	run    *models.IngestionRun
}

func startRun(ctx context.Context, repo repository.Repository, logger *zap.Logger, jobType string, propertyID *int64) *runRecorder {
	now := time.Now().UTC()
	run := &models.IngestionRun{
		ID:         uuid.NewString(),
		JobType:    jobType,
		PropertyID: propertyID,
		Status:     models.RunStatusRunning,
		StartedAt:  &now,
	}
	if err := repo.InsertIngestionRun(ctx, run); err != nil && logger != nil {
		logger.Warn("failed to record ingestion run", zap.String("job_type", jobType), zap.Error(err))
	}
	return &runRecorder{repo: repo, logger: logger, run: run}
}

func (r *runRecorder) finish(ctx context.Context, summary *RunSummary, runErr error) {
	now := time.Now().UTC()
	r.run.CompletedAt = &now
	r.run.Status = models.RunStatusSuccess
	if runErr != nil {
		r.run.Status = models.RunStatusFailed
		msg := runErr.Error()
		r.run.ErrorMessage = &msg
	}
	if summary != nil {
		if payload, err := json.Marshal(summary); err == nil {
			r.run.ResultSummary = datatypes.JSON(payload)
		}
	}
	if err := r.repo.UpdateIngestionRun(ctx, r.run); err != nil && r.logger != nil {
		r.logger.Warn("failed to finalize ingestion run", zap.String("id", r.run.ID), zap.Error(err))
	}
}
