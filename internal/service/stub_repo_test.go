package service

import (
	"context"
	"sync"

	"propwatch/internal/models"
	"propwatch/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Signals are keyed by (source, externalId), matching the composite unique
// index the real store relies on.
type stubRepo struct {
	mu         sync.Mutex
	properties map[int64]*models.Property
	signals    map[string]*models.Signal
	runs       []*models.IngestionRun
	syncStates map[string]*models.SyncState
	synced     []int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		properties: map[int64]*models.Property{},
		signals:    map[string]*models.Signal{},
		syncStates: map[string]*models.SyncState{},
	}
}

func (s *stubRepo) addProperty(id int64, bin, bbl string) {
	prop := &models.Property{ID: id}
	if bin != "" {
		prop.BIN = &bin
	}
	if bbl != "" {
		prop.BBL = &bbl
	}
	s.properties[id] = prop
}

func (s *stubRepo) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, id)
	return s.properties[id], nil
}

func (s *stubRepo) ListSyncableProperties(ctx context.Context) ([]repository.PropertyRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []repository.PropertyRef
	for _, prop := range s.properties {
		refs = append(refs, repository.PropertyRef{ID: prop.ID, BIN: prop.BIN, BBL: prop.BBL})
	}
	return refs, nil
}

func (s *stubRepo) UpsertSignal(ctx context.Context, signal *models.Signal) (bool, error) {
	if signal.ExternalID == nil || *signal.ExternalID == "" {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[signal.Source+"/"+*signal.ExternalID] = signal
	return false, nil
}

func (s *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncStates[scope], nil
}

func (s *stubRepo) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncStates[state.Scope] = state
	return nil
}

func (s *stubRepo) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	return nil, nil
}

func (s *stubRepo) InsertIngestionRun(ctx context.Context, run *models.IngestionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *stubRepo) UpdateIngestionRun(ctx context.Context, run *models.IngestionRun) error {
	return nil
}

func (s *stubRepo) ListIngestionRuns(ctx context.Context, params repository.ListIngestionRunsParams) ([]models.IngestionRun, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) signalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.signals)
}

func (s *stubRepo) signal(source, externalID string) *models.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals[source+"/"+externalID]
}
