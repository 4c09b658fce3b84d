package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"propwatch/internal/ingest"
	"propwatch/internal/models"
	"propwatch/internal/queue"
	"propwatch/internal/repository"
)

const scopeNycDelta = "nyc_delta"

// OpenDataSource is the slice of the NYC Open Data client the delta sync
// consumes. Tests substitute a stub.
type OpenDataSource interface {
	FetchPermitsByBIN(ctx context.Context, bin, since string) ([]map[string]any, error)
	FetchViolationsByBIN(ctx context.Context, bin, since string) ([]map[string]any, error)
	FetchECBViolationsByBIN(ctx context.Context, bin, since string) ([]map[string]any, error)
	Fetch311ComplaintsByBBL(ctx context.Context, bbl, since string) ([]map[string]any, error)
}

// DeltaSyncService is the NYC Open Data ingestion orchestrator: the sweep
// entrypoint fans out over properties, the per-property entrypoint fetches,
// normalizes and upserts each dataset independently.
type DeltaSyncService struct {
	Repo             repository.Repository
	Client           OpenDataSource
	Logger           *zap.Logger
	LookbackDays     int
	SweepConcurrency int
}

func (s *DeltaSyncService) Run(ctx context.Context, payload queue.SweepPayload) error {
	if payload.AllProperties {
		return s.runSweep(ctx)
	}
	if payload.PropertyID > 0 {
		return s.RunForProperty(ctx, payload.PropertyID)
	}
	return nil
}

// runSweep processes every identifier-bearing property through a bounded
// worker pool. A failing property never aborts the sweep; failures land in
// that property's ingestion run and in the sweep's sync state.
func (s *DeltaSyncService) runSweep(ctx context.Context) error {
	recorder := startRun(ctx, s.Repo, s.Logger, scopeNycDelta+"_sweep", nil)

	props, err := s.Repo.ListSyncableProperties(ctx)
	if err != nil {
		recorder.finish(ctx, nil, err)
		return fmt.Errorf("failed to list properties: %w", err)
	}

	targets := props[:0:0]
	for _, prop := range props {
		if prop.HasIdentifier() {
			targets = append(targets, prop)
		}
	}

	concurrency := s.SweepConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, concurrency)
	for _, prop := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.RunForProperty(ctx, id); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(prop.ID)
	}
	wg.Wait()

	s.saveSweepState(ctx, len(targets), failed)
	recorder.finish(ctx, &RunSummary{Datasets: map[string]DatasetStats{
		"properties": {Fetched: len(targets), Upserted: len(targets) - failed},
	}}, nil)

	s.Logger.Info("nyc delta sweep complete",
		zap.Int("properties", len(targets)),
		zap.Int("skipped", len(props)-len(targets)),
		zap.Int("failed", failed),
	)
	return nil
}

func (s *DeltaSyncService) saveSweepState(ctx context.Context, total, failed int) {
	now := time.Now().UTC()
	cursor := s.sinceCursor()
	state := &models.SyncState{
		Scope:         scopeNycDelta,
		Cursor:        &cursor,
		LastAttemptAt: &now,
	}
	if failed == 0 {
		state.LastSuccessAt = &now
	} else {
		msg := fmt.Sprintf("%d of %d properties failed", failed, total)
		state.LastError = &msg
	}
	state.StatsJSON = datatypes.JSON(fmt.Sprintf(`{"properties":%d,"failed":%d}`, total, failed))
	if err := s.Repo.SaveSyncState(ctx, state); err != nil {
		s.Logger.Warn("failed to save sync state", zap.Error(err))
	}
}

// RunForProperty syncs permits, DOB violations, ECB violations and 311
// complaints for one property. Datasets are isolated: a fetch failure in one
// is recorded and the rest still run.
func (s *DeltaSyncService) RunForProperty(ctx context.Context, propertyID int64) error {
	recorder := startRun(ctx, s.Repo, s.Logger, scopeNycDelta, &propertyID)

	prop, err := s.Repo.GetProperty(ctx, propertyID)
	if err != nil {
		recorder.finish(ctx, nil, err)
		return fmt.Errorf("failed to load property %d: %w", propertyID, err)
	}
	if prop == nil {
		recorder.finish(ctx, nil, fmt.Errorf("property %d not found", propertyID))
		return fmt.Errorf("property %d not found", propertyID)
	}

	bin := deref(prop.BIN)
	bbl := deref(prop.BBL)
	if bin == "" && bbl == "" {
		s.Logger.Warn("property has no BIN/BBL, skipping nyc ingestion",
			zap.Int64("property_id", propertyID))
		recorder.finish(ctx, &RunSummary{Skipped: true, Reason: "no BIN/BBL"}, nil)
		return nil
	}

	since := s.sinceCursor()
	summary := NewRunSummary()
	var errs []error

	if bin != "" {
		s.syncDataset(ctx, summary, &errs, "permits", propertyID,
			func() ([]map[string]any, error) { return s.Client.FetchPermitsByBIN(ctx, bin, since) },
			func(raw map[string]any) *models.Signal { return ingest.NormalizePermit(propertyID, raw) })
		s.syncDataset(ctx, summary, &errs, "dob_violations", propertyID,
			func() ([]map[string]any, error) { return s.Client.FetchViolationsByBIN(ctx, bin, since) },
			func(raw map[string]any) *models.Signal {
				return ingest.NormalizeViolation(propertyID, raw, ingest.ViolationKindDOB)
			})
		s.syncDataset(ctx, summary, &errs, "ecb_violations", propertyID,
			func() ([]map[string]any, error) { return s.Client.FetchECBViolationsByBIN(ctx, bin, since) },
			func(raw map[string]any) *models.Signal {
				return ingest.NormalizeViolation(propertyID, raw, ingest.ViolationKindECB)
			})
	}
	if bbl != "" {
		s.syncDataset(ctx, summary, &errs, "complaints_311", propertyID,
			func() ([]map[string]any, error) { return s.Client.Fetch311ComplaintsByBBL(ctx, bbl, since) },
			func(raw map[string]any) *models.Signal { return ingest.Normalize311Complaint(propertyID, raw) })
	}

	runErr := errors.Join(errs...)
	recorder.finish(ctx, summary, runErr)

	s.Logger.Info("nyc ingestion complete",
		append([]zap.Field{zap.Int64("property_id", propertyID)}, summary.Fields()...)...)
	return runErr
}

// syncDataset runs one dataset's fetch/normalize/upsert leg and folds the
// outcome into the summary. Errors are collected, not propagated mid-run.
func (s *DeltaSyncService) syncDataset(
	ctx context.Context,
	summary *RunSummary,
	errs *[]error,
	dataset string,
	propertyID int64,
	fetch func() ([]map[string]any, error),
	normalize func(map[string]any) *models.Signal,
) {
	stats := DatasetStats{}
	defer func() { summary.Record(dataset, stats) }()

	raws, err := fetch()
	if err != nil {
		s.Logger.Warn("dataset fetch failed",
			zap.String("dataset", dataset),
			zap.Int64("property_id", propertyID),
			zap.Error(err))
		stats.Error = err.Error()
		*errs = append(*errs, fmt.Errorf("%s: %w", dataset, err))
		return
	}
	stats.Fetched = len(raws)

	for _, raw := range raws {
		skipped, err := s.Repo.UpsertSignal(ctx, normalize(raw))
		if err != nil {
			stats.Error = err.Error()
			*errs = append(*errs, fmt.Errorf("%s: upsert: %w", dataset, err))
			return
		}
		if skipped {
			stats.Dropped++
			s.Logger.Debug("record dropped, no external id",
				zap.String("dataset", dataset),
				zap.Int64("property_id", propertyID))
			continue
		}
		stats.Upserted++
	}
}

func (s *DeltaSyncService) sinceCursor() string {
	days := s.LookbackDays
	if days <= 0 {
		days = 7
	}
	return time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
