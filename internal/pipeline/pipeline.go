package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/couchcryptid/kosher-geo-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw business records from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer parses and geocodes a raw business record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Business, error)
}

// BatchLoader writes geocoded businesses to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, businesses []domain.Business) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// geoSourceNone labels records that passed through without a geocoder.
	geoSourceNone = "none"
)

// Pipeline geocodes business records as they arrive: extract a batch,
// enrich each record with coordinates, load the batch, commit offsets.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has loaded at least one batch.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not geocoded any businesses yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled. Extract and
// load failures back off exponentially from 200ms up to 5s.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("geocoding pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	b := backoff{next: initialBackoff}
	for ctx.Err() == nil {
		err := p.runBatch(ctx)
		switch {
		case ctx.Err() != nil:
		case err != nil:
			p.logger.Error("geocoding batch failed", "error", err, "retry_in", b.next)
			if !b.wait(ctx) {
				return nil
			}
		default:
			b.reset()
		}
	}
	p.logger.Info("geocoding pipeline stopping", "reason", ctx.Err())
	return nil
}

// runBatch runs one extract-geocode-load cycle. Records that fail to parse
// are committed and skipped; the rest are committed only after loading.
func (p *Pipeline) runBatch(ctx context.Context) error {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return nil
	}
	p.metrics.MessagesConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))

	businesses := make([]domain.Business, 0, len(raws))
	pending := make([]domain.RawEvent, 0, len(raws))
	for _, raw := range raws {
		b, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("skipping unparseable business record",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		businesses = append(businesses, b)
		pending = append(pending, raw)
	}
	if len(businesses) == 0 {
		return nil
	}

	if err := p.loader.LoadBatch(ctx, businesses); err != nil {
		return err
	}
	p.metrics.MessagesProduced.Add(float64(len(businesses)))
	for _, raw := range pending {
		p.commit(ctx, raw)
	}

	sources := p.countSources(businesses)
	p.logger.Debug("geocoding batch loaded", "businesses", len(businesses), "geo_sources", sources)
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

// countSources tallies how each business got its coordinates.
func (p *Pipeline) countSources(businesses []domain.Business) map[string]int {
	sources := make(map[string]int)
	for _, b := range businesses {
		source := b.GeoSource
		if source == "" {
			source = geoSourceNone
		}
		sources[source]++
		p.metrics.BusinessesGeocoded.WithLabelValues(source).Inc()
	}
	return sources
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

type backoff struct {
	next time.Duration
}

func (b *backoff) reset() {
	b.next = initialBackoff
}

// wait sleeps for the current delay and doubles it, capped at maxBackoff.
// It returns false if ctx ends first.
func (b *backoff) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.next)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	b.next = min(b.next*2, maxBackoff)
	return true
}
