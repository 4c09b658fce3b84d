package service

import (
	"context"

	"go.uber.org/zap"

	"propwatch/internal/queue"
	"propwatch/internal/repository"
)

// ConditionService is the condition-imagery orchestrator. Imagery providers
// (Nearmap/EagleView) are not integrated yet; runs are recorded so the weekly
// schedule stays observable.
type ConditionService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *ConditionService) Run(ctx context.Context, payload queue.SweepPayload) error {
	if payload.AllProperties {
		recorder := startRun(ctx, s.Repo, s.Logger, "condition_sweep", nil)
		s.Logger.Info("condition ingestion sweep: no provider configured")
		recorder.finish(ctx, &RunSummary{Skipped: true, Reason: "no condition provider configured"}, nil)
		return nil
	}
	if payload.PropertyID > 0 {
		return s.RunForProperty(ctx, payload.PropertyID)
	}
	return nil
}

func (s *ConditionService) RunForProperty(ctx context.Context, propertyID int64) error {
	recorder := startRun(ctx, s.Repo, s.Logger, "condition", &propertyID)
	s.Logger.Info("condition ingestion: no provider configured",
		zap.Int64("property_id", propertyID))
	recorder.finish(ctx, &RunSummary{Skipped: true, Reason: "no condition provider configured"}, nil)
	return nil
}
