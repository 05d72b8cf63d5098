package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/logger"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []*domain.Resolution
}

func (f *fakeNotifier) NotifyIdentityCreated(ctx context.Context, res *domain.Resolution) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, res)
}

func newPipelineFixture(t *testing.T, notifier Notifier, dimensions int) (*resolverFixture, *Pipeline) {
	t.Helper()
	f := newResolverFixture(t)
	p := NewPipeline(f.resolver, notifier, logger.GetDefault(), &PipelineConfig{
		Workers:    3,
		Dimensions: dimensions,
	})
	return f, p
}

func failureKinds(result *domain.BatchResult) map[int]string {
	kinds := make(map[int]string, len(result.Failed))
	for _, f := range result.Failed {
		kinds[f.Index] = f.Kind
	}
	return kinds
}

func TestProcessBatchResolvesAllItems(t *testing.T) {
	f, p := newPipelineFixture(t, nil, 0)

	if err := f.cache.Upsert(context.Background(), "existing", domain.Vector{0, 1}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	result := p.ProcessBatch(context.Background(), []domain.Detection{
		*detection(domain.Vector{0, 1}),   // matches existing
		*detection(domain.Vector{1, 0}),   // new person
		*detection(domain.Vector{1, 0.1}), // same new person
	})

	if result.ProcessedCount != 3 {
		t.Errorf("ProcessedCount = %d, want 3", result.ProcessedCount)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("failed items = %v, want none", result.Failed)
	}
	if len(result.Resolved) != 3 {
		t.Fatalf("resolved %d items, want 3", len(result.Resolved))
	}

	var matched, created int
	for _, res := range result.Resolved {
		switch res.Outcome {
		case domain.OutcomeMatched:
			matched++
		case domain.OutcomeCreated:
			created++
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want 1 (the two sibling detections are one person)", created)
	}
	if matched != 2 {
		t.Errorf("matched = %d, want 2", matched)
	}
	if len(f.identities.created) != 1 {
		t.Errorf("created %d identities, want 1", len(f.identities.created))
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	f, p := newPipelineFixture(t, nil, 0)

	bad := *detection(domain.Vector{1, 0})
	bad.FloorNum = 9
	bad.FloorSubNum = 9

	result := p.ProcessBatch(context.Background(), []domain.Detection{
		bad,
		*detection(domain.Vector{1, 0}),
	})

	if result.ProcessedCount != 2 {
		t.Errorf("ProcessedCount = %d, want 2", result.ProcessedCount)
	}
	if len(result.Resolved) != 1 {
		t.Fatalf("resolved %d items, want 1; the bad item must not fail its sibling", len(result.Resolved))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("failed %d items, want 1", len(result.Failed))
	}
	if kind := failureKinds(result)[0]; kind != FailureNotFound {
		t.Errorf("failure kind = %q, want %q", kind, FailureNotFound)
	}
	if len(f.identities.created) != 1 {
		t.Errorf("created %d identities, want 1", len(f.identities.created))
	}
}

func TestProcessBatchValidation(t *testing.T) {
	_, p := newPipelineFixture(t, nil, 3)

	noEmbedding := *detection(nil)
	noURL := *detection(domain.Vector{1, 0, 0})
	noURL.ImageURL = ""
	wrongDims := *detection(domain.Vector{1, 0})

	result := p.ProcessBatch(context.Background(), []domain.Detection{
		noEmbedding,
		noURL,
		wrongDims,
		*detection(domain.Vector{1, 0, 0}),
	})

	if len(result.Resolved) != 1 {
		t.Fatalf("resolved %d items, want 1", len(result.Resolved))
	}
	if len(result.Failed) != 3 {
		t.Fatalf("failed %d items, want 3", len(result.Failed))
	}

	kinds := failureKinds(result)
	for _, idx := range []int{0, 1, 2} {
		if kinds[idx] != FailureValidation {
			t.Errorf("item %d failure kind = %q, want %q", idx, kinds[idx], FailureValidation)
		}
	}
}

func TestProcessBatchNotifiesOnCreation(t *testing.T) {
	f, p := newPipelineFixture(t, &fakeNotifier{}, 0)
	notifier := p.notifier.(*fakeNotifier)

	if err := f.cache.Upsert(context.Background(), "existing", domain.Vector{0, 1}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	p.ProcessBatch(context.Background(), []domain.Detection{
		*detection(domain.Vector{0, 1}), // matched, no event
		*detection(domain.Vector{1, 0}), // created, one event
	})

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 {
		t.Fatalf("notifier received %d events, want 1", len(notifier.events))
	}
	if notifier.events[0].Outcome != domain.OutcomeCreated {
		t.Errorf("notified outcome = %q, want %q", notifier.events[0].Outcome, domain.OutcomeCreated)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	_, p := newPipelineFixture(t, nil, 0)

	result := p.ProcessBatch(context.Background(), nil)
	if result.ProcessedCount != 0 || len(result.Resolved) != 0 || len(result.Failed) != 0 {
		t.Errorf("empty batch result = %+v, want all zero", result)
	}
}
