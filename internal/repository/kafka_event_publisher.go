package repository

import (
	"context"
	"strconv"
	"time"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	pkgkafka "ZenithCore/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher keys every event by symbol so one symbol stays ordered
// within its partition.
type KafkaEventPublisher struct {
	producer     batchProducer
	signalsTopic string
	scoresTopic  string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topics pkgkafka.Topics) *KafkaEventPublisher {
	return newKafkaEventPublisher(producer, topics)
}

func newKafkaEventPublisher(p batchProducer, topics pkgkafka.Topics) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, signalsTopic: topics.Signals, scoresTopic: topics.Scores}
}

type signalEvent struct {
	Symbol string             `json:"symbol"`
	Signal models.PulseSignal `json:"signal"`
}

type scoreEvent struct {
	models.ZenithScoreResult
	PublishedAt time.Time `json:"published_at"`
}

func (p *KafkaEventPublisher) PublishSignals(ctx context.Context, symbol string, signals []models.PulseSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(symbol),
			Value:   signalEvent{Symbol: symbol, Signal: s},
			Headers: map[string]string{
				"strategy":   string(s.Strategy),
				"category":   string(s.Category),
				"expires_at": strconv.FormatInt(s.ExpiresAt().UnixMilli(), 10),
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.signalsTopic, msgs)
}

func (p *KafkaEventPublisher) PublishScore(ctx context.Context, res models.ZenithScoreResult) error {
	return p.producer.PublishBatch(ctx, p.scoresTopic, []pkgkafka.Message{{
		Key:   []byte(res.Symbol),
		Value: scoreEvent{ZenithScoreResult: res, PublishedAt: time.Now().UTC()},
	}})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher drops every event. It stands in when Kafka is disabled.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishSignals(context.Context, string, []models.PulseSignal) error {
	return nil
}

func (NopEventPublisher) PublishScore(context.Context, models.ZenithScoreResult) error { return nil }

func (NopEventPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NopEventPublisher{}
)
