package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	pkgkafka "ZenithCore/pkg/kafka"
)

type recordingProducer struct {
	topics  []string
	batches [][]pkgkafka.Message
}

func (r *recordingProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	r.topics = append(r.topics, topic)
	r.batches = append(r.batches, msgs)
	return nil
}

func (r *recordingProducer) Close() error { return nil }

func testTopics() pkgkafka.Topics {
	return pkgkafka.Topics{Recompute: "zenith.recompute", Signals: "zenith.signals", Scores: "zenith.scores"}
}

func TestKafkaEventPublisherSignals(t *testing.T) {
	rp := &recordingProducer{}
	p := newKafkaEventPublisher(rp, testTopics())

	require.NoError(t, p.PublishSignals(context.Background(), "AAPL", nil))
	assert.Empty(t, rp.topics)

	sigs := []models.PulseSignal{
		{ID: "a", Category: models.CategoryStrength, Strategy: models.StrategyHeuristic},
		{ID: "b", Category: models.CategoryWeakness, Strategy: models.StrategyFormula, Timestamp: 1_700_000_000_000, TTL: 300},
	}
	require.NoError(t, p.PublishSignals(context.Background(), "AAPL", sigs))

	require.Equal(t, []string{"zenith.signals"}, rp.topics)
	batch := rp.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "AAPL", string(batch[1].Key))
	assert.Equal(t, "formula", batch[1].Headers["strategy"])
	assert.Equal(t, "1700000300000", batch[1].Headers["expires_at"])
	ev, ok := batch[0].Value.(signalEvent)
	require.True(t, ok)
	assert.Equal(t, "a", ev.Signal.ID)
}

func TestKafkaEventPublisherScore(t *testing.T) {
	rp := &recordingProducer{}
	p := newKafkaEventPublisher(rp, testTopics())

	res := models.ZenithScoreResult{Symbol: "MSFT", Score: 72.5, LastUpdated: time.Unix(1700000000, 0)}
	require.NoError(t, p.PublishScore(context.Background(), res))

	require.Equal(t, []string{"zenith.scores"}, rp.topics)
	ev, ok := rp.batches[0][0].Value.(scoreEvent)
	require.True(t, ok)
	assert.Equal(t, 72.5, ev.Score)
	assert.False(t, ev.PublishedAt.IsZero())
}
