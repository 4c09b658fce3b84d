package service

import (
	"context"

	"go.uber.org/zap"

	"propwatch/internal/queue"
	"propwatch/internal/repository"
)

// HazardService is the hazard-provider orchestrator. No hazard provider
// (PerilPulse et al.) is integrated yet; runs are recorded so the schedule
// and on-demand dispatch stay observable end to end.
// TODO: wire the PerilPulse client once credentials are provisioned.
type HazardService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *HazardService) Run(ctx context.Context, payload queue.SweepPayload) error {
	if payload.AllProperties {
		recorder := startRun(ctx, s.Repo, s.Logger, "hazard_sweep", nil)
		s.Logger.Info("hazard ingestion sweep: no provider configured")
		recorder.finish(ctx, &RunSummary{Skipped: true, Reason: "no hazard provider configured"}, nil)
		return nil
	}
	if payload.PropertyID > 0 {
		return s.RunForProperty(ctx, payload.PropertyID)
	}
	return nil
}

func (s *HazardService) RunForProperty(ctx context.Context, propertyID int64) error {
	recorder := startRun(ctx, s.Repo, s.Logger, "hazard", &propertyID)
	s.Logger.Info("hazard ingestion: no provider configured",
		zap.Int64("property_id", propertyID))
	recorder.finish(ctx, &RunSummary{Skipped: true, Reason: "no hazard provider configured"}, nil)
	return nil
}
