package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"propwatch/internal/ingest"
	"propwatch/internal/queue"
	"propwatch/internal/repository"
)

const scopeValuation = "valuation"

// AssessmentSource is the valuation slice of the open-data client.
type AssessmentSource interface {
	FetchAssessmentsByBBL(ctx context.Context, bbl string) ([]map[string]any, error)
}

// ValuationService ingests DOF assessment-roll records as valuation signals.
// Assessments are parcel-level, so only the BBL identifier is used.
type ValuationService struct {
	Repo             repository.Repository
	Client           AssessmentSource
	Logger           *zap.Logger
	SweepConcurrency int
}

func (s *ValuationService) Run(ctx context.Context, payload queue.SweepPayload) error {
	if payload.AllProperties {
		return s.runSweep(ctx)
	}
	if payload.PropertyID > 0 {
		return s.RunForProperty(ctx, payload.PropertyID)
	}
	return nil
}

func (s *ValuationService) runSweep(ctx context.Context) error {
	props, err := s.Repo.ListSyncableProperties(ctx)
	if err != nil {
		return fmt.Errorf("failed to list properties: %w", err)
	}
	var failed int
	for _, prop := range props {
		if prop.BBL == nil || *prop.BBL == "" {
			continue
		}
		if err := s.RunForProperty(ctx, prop.ID); err != nil {
			failed++
		}
	}
	s.Logger.Info("valuation sweep complete",
		zap.Int("properties", len(props)),
		zap.Int("failed", failed))
	return nil
}

func (s *ValuationService) RunForProperty(ctx context.Context, propertyID int64) error {
	recorder := startRun(ctx, s.Repo, s.Logger, scopeValuation, &propertyID)

	prop, err := s.Repo.GetProperty(ctx, propertyID)
	if err != nil {
		recorder.finish(ctx, nil, err)
		return fmt.Errorf("failed to load property %d: %w", propertyID, err)
	}
	if prop == nil || prop.BBL == nil || *prop.BBL == "" {
		s.Logger.Warn("property has no BBL, skipping valuation ingestion",
			zap.Int64("property_id", propertyID))
		recorder.finish(ctx, &RunSummary{Skipped: true, Reason: "no BBL"}, nil)
		return nil
	}

	summary := NewRunSummary()
	stats := DatasetStats{}

	raws, err := s.Client.FetchAssessmentsByBBL(ctx, *prop.BBL)
	if err != nil {
		stats.Error = err.Error()
		summary.Record("assessments", stats)
		recorder.finish(ctx, summary, err)
		return fmt.Errorf("assessments: %w", err)
	}
	stats.Fetched = len(raws)

	for _, raw := range raws {
		skipped, err := s.Repo.UpsertSignal(ctx, ingest.NormalizeAssessment(propertyID, raw))
		if err != nil {
			stats.Error = err.Error()
			summary.Record("assessments", stats)
			recorder.finish(ctx, summary, err)
			return fmt.Errorf("assessments: upsert: %w", err)
		}
		if skipped {
			stats.Dropped++
			continue
		}
		stats.Upserted++
	}

	summary.Record("assessments", stats)
	recorder.finish(ctx, summary, nil)
	s.Logger.Info("valuation ingestion complete",
		zap.Int64("property_id", propertyID),
		zap.Int("upserted", stats.Upserted))
	return nil
}
