package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/logger"
)

// Notifier receives best-effort notifications about newly created identities.
type Notifier interface {
	NotifyIdentityCreated(ctx context.Context, res *domain.Resolution)
}

// PipelineConfig holds configuration for the batch ingestion pipeline.
type PipelineConfig struct {
	Workers    int
	Dimensions int // expected embedding length; 0 disables the check
}

// Pipeline fans a batch of detections out to the resolver over a bounded
// worker pool. Every item yields exactly one outcome; a failed item never
// aborts its siblings.
type Pipeline struct {
	resolver   *Resolver
	notifier   Notifier
	logger     *logger.Logger
	workers    int
	dimensions int
}

// NewPipeline creates a batch ingestion pipeline.
func NewPipeline(resolver *Resolver, notifier Notifier, log *logger.Logger, cfg *PipelineConfig) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		resolver:   resolver,
		notifier:   notifier,
		logger:     log,
		workers:    workers,
		dimensions: cfg.Dimensions,
	}
}

func (p *Pipeline) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return p.logger
}

type batchItem struct {
	index     int
	detection domain.Detection
}

type itemResult struct {
	index      int
	resolution *domain.Resolution
	err        error
}

// ProcessBatch resolves every detection in the batch independently and
// concurrently. No ordering is guaranteed between items. Once accepted, the
// batch runs to completion item by item.
func (p *Pipeline) ProcessBatch(ctx context.Context, detections []domain.Detection) *domain.BatchResult {
	ctx = logger.SetBatchID(ctx, uuid.New().String())
	start := time.Now()

	items := make(chan batchItem, p.workers*2)
	results := make(chan itemResult, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, items, results)
		}()
	}

	result := &domain.BatchResult{
		ProcessedCount: len(detections),
		Resolved:       []domain.Resolution{},
		Failed:         []domain.DetectionFailure{},
	}

	done := make(chan struct{})
	go func() {
		for r := range results {
			if r.err != nil {
				result.Failed = append(result.Failed, domain.DetectionFailure{
					Index:  r.index,
					Kind:   failureKind(r.err),
					Reason: r.err.Error(),
				})
				p.log(ctx).WithField("index", r.index).WithError(r.err).Error("Failed to resolve detection")
				continue
			}
			result.Resolved = append(result.Resolved, *r.resolution)
			if p.notifier != nil && r.resolution.Outcome == domain.OutcomeCreated {
				p.notifier.NotifyIdentityCreated(ctx, r.resolution)
			}
		}
		close(done)
	}()

	for i, det := range detections {
		items <- batchItem{index: i, detection: det}
	}
	close(items)
	wg.Wait()

	close(results)
	<-done

	logger.With(logger.Fields{
		logger.FieldCount:      result.ProcessedCount,
		"resolved":             len(result.Resolved),
		"failed":               len(result.Failed),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info(ctx, "Batch completed")

	return result
}

func (p *Pipeline) worker(ctx context.Context, items <-chan batchItem, results chan<- itemResult) {
	for item := range items {
		res := itemResult{index: item.index}
		if err := p.validate(&item.detection); err != nil {
			res.err = err
			results <- res
			continue
		}
		res.resolution, res.err = p.resolver.Resolve(ctx, &item.detection)
		results <- res
	}
}

// validate rejects malformed detections before they reach the resolver.
func (p *Pipeline) validate(det *domain.Detection) error {
	if len(det.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", ErrValidation)
	}
	if det.ImageURL == "" {
		return fmt.Errorf("%w: missing image URL", ErrValidation)
	}
	if p.dimensions > 0 && len(det.Embedding) != p.dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, expected %d",
			ErrValidation, len(det.Embedding), p.dimensions)
	}
	return nil
}
