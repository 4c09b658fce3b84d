package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type stubOrchestrator struct {
	sweeps     []SweepPayload
	properties []int64
	err        error
}

func (o *stubOrchestrator) Run(ctx context.Context, payload SweepPayload) error {
	o.sweeps = append(o.sweeps, payload)
	return o.err
}

func (o *stubOrchestrator) RunForProperty(ctx context.Context, propertyID int64) error {
	o.properties = append(o.properties, propertyID)
	return o.err
}

func onDemandTask(t *testing.T, payload OnDemandPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return asynq.NewTask(TypeOnDemand, body)
}

func TestOnDemandRunsDeltaAndHazard(t *testing.T) {
	delta := &stubOrchestrator{}
	hazard := &stubOrchestrator{}
	h := Handlers{Delta: delta, Hazard: hazard, Logger: zap.NewNop()}

	task := onDemandTask(t, OnDemandPayload{PropertyID: 42})
	if err := h.handleOnDemand(context.Background(), task); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(delta.properties) != 1 || delta.properties[0] != 42 {
		t.Fatalf("delta properties=%v, want [42]", delta.properties)
	}
	if len(hazard.properties) != 1 || hazard.properties[0] != 42 {
		t.Fatalf("hazard properties=%v, want [42]: absent providers means all", hazard.properties)
	}
}

func TestOnDemandWithExplicitHazardProvider(t *testing.T) {
	delta := &stubOrchestrator{}
	hazard := &stubOrchestrator{}
	h := Handlers{Delta: delta, Hazard: hazard, Logger: zap.NewNop()}

	task := onDemandTask(t, OnDemandPayload{PropertyID: 42, Providers: []string{"hazard"}})
	if err := h.handleOnDemand(context.Background(), task); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(delta.properties) != 1 {
		t.Fatalf("delta not invoked")
	}
	if len(hazard.properties) != 1 {
		t.Fatalf("hazard not invoked")
	}
}

func TestOnDemandSkipsHazardWhenExcluded(t *testing.T) {
	delta := &stubOrchestrator{}
	hazard := &stubOrchestrator{}
	h := Handlers{Delta: delta, Hazard: hazard, Logger: zap.NewNop()}

	task := onDemandTask(t, OnDemandPayload{PropertyID: 42, Providers: []string{"valuation"}})
	if err := h.handleOnDemand(context.Background(), task); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(delta.properties) != 1 {
		t.Fatalf("delta sync must run unconditionally")
	}
	if len(hazard.properties) != 0 {
		t.Fatalf("hazard invoked despite exclusion: %v", hazard.properties)
	}
}

func TestOnDemandDeltaFailureStopsHazard(t *testing.T) {
	delta := &stubOrchestrator{err: errors.New("boom")}
	hazard := &stubOrchestrator{}
	h := Handlers{Delta: delta, Hazard: hazard, Logger: zap.NewNop()}

	task := onDemandTask(t, OnDemandPayload{PropertyID: 42})
	if err := h.handleOnDemand(context.Background(), task); err == nil {
		t.Fatalf("err=nil, want delta failure")
	}
	if len(hazard.properties) != 0 {
		t.Fatalf("hazard ran after delta failure")
	}
}

func TestOnDemandRejectsMissingPropertyID(t *testing.T) {
	h := Handlers{Delta: &stubOrchestrator{}, Hazard: &stubOrchestrator{}, Logger: zap.NewNop()}

	task := onDemandTask(t, OnDemandPayload{})
	err := h.handleOnDemand(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err=%v, want SkipRetry", err)
	}
}

func TestSweepHandlerDecodesPayload(t *testing.T) {
	delta := &stubOrchestrator{}
	handler := sweepHandler(delta)

	body, _ := json.Marshal(SweepPayload{AllProperties: true})
	if err := handler(context.Background(), asynq.NewTask(TypeNycDelta, body)); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(delta.sweeps) != 1 || !delta.sweeps[0].AllProperties {
		t.Fatalf("sweeps=%v", delta.sweeps)
	}

	if err := handler(context.Background(), asynq.NewTask(TypeNycDelta, []byte("{not json"))); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err=%v, want SkipRetry for malformed payload", err)
	}
}

func TestWantsProvider(t *testing.T) {
	if !(OnDemandPayload{}).WantsProvider(ProviderHazard) {
		t.Fatalf("empty providers should mean all")
	}
	p := OnDemandPayload{Providers: []string{"hazard", "valuation"}}
	if !p.WantsProvider("hazard") || p.WantsProvider("condition") {
		t.Fatalf("provider matching broken")
	}
}
