package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/pkg/logger"
)

var (
	ErrInvalidRequest = errors.New("invalid recompute request")
	ErrBufferFull     = errors.New("recompute buffer full")
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, req models.RecomputeRequest) error
}

// RecomputePipeline sits between the recompute topic and the score use case.
// It validates, drops requests for a symbol seen within minInterval, and
// buffers failed requests for a background retry.
type RecomputePipeline struct {
	proc        Proc
	metrics     domrepo.Metrics
	log         *logger.Logger
	minInterval time.Duration
	bufSize     int
	bufCh       chan models.RecomputeRequest
	stopCh      chan struct{}
	doneCh      chan struct{}
	stopOnce    sync.Once
	started     bool
	mu          sync.Mutex
	lastSeen    map[string]time.Time
	now         func() time.Time
	newBackOff  func() backoff.BackOff
}

type PipelineOption func(*RecomputePipeline)

// WithMinInterval sets how long a symbol is deduplicated after acceptance.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *RecomputePipeline) {
		if d >= 0 {
			p.minInterval = d
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *RecomputePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *RecomputePipeline) {
		if l != nil {
			p.log = l.With("recompute_pipeline")
		}
	}
}

// NewRecomputePipeline creates a new pipeline.
func NewRecomputePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RecomputePipeline {
	p := &RecomputePipeline{
		proc:        proc,
		metrics:     metrics,
		log:         logger.Nop(),
		minInterval: time.Minute,
		bufSize:     256,
		lastSeen:    make(map[string]time.Time),
		now:         time.Now,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 50 * time.Millisecond
			bo.MaxInterval = 2 * time.Second
			bo.MaxElapsedTime = 0
			return bo
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.RecomputeRequest, p.bufSize)
	return p
}

// Start launches the background retry of buffered requests. Each Start
// gets fresh stop and done channels, so the pipeline can be restarted.
func (p *RecomputePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.stopOnce = sync.Once{}
	go p.flush(ctx, p.stopCh, p.doneCh)
}

// Stop stops the background retry and waits for it to exit.
func (p *RecomputePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.stopOnce.Do(func() { close(stopCh) })
	p.mu.Unlock()
	<-doneCh
}

func (p *RecomputePipeline) flush(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	bo := p.newBackOff()
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case req := <-p.bufCh:
			err := p.proc.Process(ctx, req)
			if err == nil {
				bo.Reset()
				continue
			}
			p.metrics.RecordError("pipeline_flush")
			wait := bo.NextBackOff()
			p.log.Warn("buffered recompute failed",
				logger.String("symbol", req.Symbol),
				logger.Duration("retry_in", wait),
				logger.Error(err),
			)
			select {
			case <-time.After(wait):
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
			select {
			case p.bufCh <- req:
			default:
				p.metrics.RecordError("pipeline_buffer_drop")
			}
		}
	}
}

// Process validates, deduplicates and forwards req. A downstream failure is
// buffered for retry and only reported when the buffer is full.
func (p *RecomputePipeline) Process(ctx context.Context, req models.RecomputeRequest) error {
	start := p.now()
	req = normalize(req)
	if err := validate(req); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(req.Symbol, start) {
		p.metrics.RecordError("pipeline_throttle")
		p.log.Debug("recompute deduplicated", logger.String("symbol", req.Symbol))
		return nil
	}

	if err := p.proc.Process(ctx, req); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- req:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
			return nil
		default:
			p.metrics.RecordError("pipeline_buffer_full")
			return fmt.Errorf("%w: %w", ErrBufferFull, err)
		}
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

// Buffered returns the number of requests waiting for retry.
func (p *RecomputePipeline) Buffered() int { return len(p.bufCh) }

func normalize(req models.RecomputeRequest) models.RecomputeRequest {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.AssetType == "" {
		req.AssetType = models.AssetStock
	}
	return req
}

func validate(req models.RecomputeRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("%w: symbol empty", ErrInvalidRequest)
	}
	if !req.AssetType.Valid() {
		return fmt.Errorf("%w: asset type %q", ErrInvalidRequest, req.AssetType)
	}
	return nil
}

func (p *RecomputePipeline) allow(symbol string, now time.Time) bool {
	if p.minInterval <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && now.Sub(last) < p.minInterval {
		return false
	}
	for s, seen := range p.lastSeen {
		if now.Sub(seen) >= p.minInterval {
			delete(p.lastSeen, s)
		}
	}
	p.lastSeen[symbol] = now
	return true
}

// tracked returns how many symbols are inside the dedupe window.
func (p *RecomputePipeline) tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lastSeen)
}
