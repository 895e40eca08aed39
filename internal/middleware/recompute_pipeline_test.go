package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	"ZenithCore/pkg/metrics"
)

type flakyProc struct {
	mu       sync.Mutex
	failures int
	got      []models.RecomputeRequest
}

func (p *flakyProc) Process(_ context.Context, req models.RecomputeRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, req)
	if p.failures > 0 {
		p.failures--
		return errors.New("downstream unavailable")
	}
	return nil
}

func (p *flakyProc) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestPipelineNormalizesAndValidates(t *testing.T) {
	proc := &flakyProc{}
	p := NewRecomputePipeline(proc, metrics.Nop{})

	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: " aapl "}))
	require.Len(t, proc.got, 1)
	assert.Equal(t, "AAPL", proc.got[0].Symbol)
	assert.Equal(t, models.AssetStock, proc.got[0].AssetType)

	err := p.Process(context.Background(), models.RecomputeRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	err = p.Process(context.Background(), models.RecomputeRequest{Symbol: "X", AssetType: "bond"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPipelineDeduplicatesPerSymbol(t *testing.T) {
	proc := &flakyProc{}
	p := NewRecomputePipeline(proc, metrics.Nop{}, WithMinInterval(time.Minute))
	now := time.Unix(1_700_000_000, 0)
	p.now = func() time.Time { return now }

	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: "AAPL"}))
	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: "aapl"}))
	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: "MSFT"}))
	assert.Equal(t, 2, proc.calls())

	now = now.Add(61 * time.Second)
	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: "AAPL"}))
	assert.Equal(t, 3, proc.calls())
}

func TestPipelineBuffersAndRetries(t *testing.T) {
	proc := &flakyProc{failures: 2}
	p := NewRecomputePipeline(proc, metrics.Nop{}, WithMinInterval(0))
	p.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: "AAPL"}))
	assert.Equal(t, 1, p.Buffered())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return proc.calls() == 3 && p.Buffered() == 0 }, time.Second, 5*time.Millisecond)
}

func TestPipelineReportsFullBuffer(t *testing.T) {
	proc := &flakyProc{failures: 10}
	p := NewRecomputePipeline(proc, metrics.Nop{}, WithMinInterval(0), WithBufferSize(1))

	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: "AAPL"}))
	err := p.Process(context.Background(), models.RecomputeRequest{Symbol: "MSFT"})
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestPipelineEvictsExpiredSymbols(t *testing.T) {
	proc := &flakyProc{}
	p := NewRecomputePipeline(proc, metrics.Nop{}, WithMinInterval(time.Minute))
	now := time.Unix(1_700_000_000, 0)
	p.now = func() time.Time { return now }

	for _, sym := range []string{"AAPL", "MSFT", "NVDA"} {
		require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: sym}))
	}
	assert.Equal(t, 3, p.tracked())

	now = now.Add(2 * time.Minute)
	require.NoError(t, p.Process(context.Background(), models.RecomputeRequest{Symbol: "TSLA"}))
	assert.Equal(t, 1, p.tracked())
}

func TestPipelineRestarts(t *testing.T) {
	p := NewRecomputePipeline(&flakyProc{}, metrics.Nop{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NotPanics(t, func() {
		p.Start(ctx)
		p.Stop()
		p.Start(ctx)
		p.Stop()
		p.Stop()
	})
}
