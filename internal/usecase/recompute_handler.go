package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/internal/middleware"
	pkgkafka "ZenithCore/pkg/kafka"
)

// RecomputeHandler consumes recompute requests and feeds them to the pipeline.
type RecomputeHandler struct {
	topic    string
	pipeline middleware.Proc
	metrics  domrepo.Metrics
}

func NewRecomputeHandler(topic string, pipeline middleware.Proc, metrics domrepo.Metrics) *RecomputeHandler {
	return &RecomputeHandler{topic: topic, pipeline: pipeline, metrics: metrics}
}

func (h *RecomputeHandler) Topic() string { return h.topic }

// Handle expects {"symbol": "...", "asset_type": "..."}. Malformed payloads
// are not retried.
func (h *RecomputeHandler) Handle(ctx context.Context, b []byte) error {
	var req models.RecomputeRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return backoff.Permanent(fmt.Errorf("decode recompute request: %w", err))
	}
	err := h.pipeline.Process(ctx, req)
	if errors.Is(err, middleware.ErrInvalidRequest) {
		return backoff.Permanent(err)
	}
	return err
}

var _ pkgkafka.MessageHandler = (*RecomputeHandler)(nil)
