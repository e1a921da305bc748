package usecase

import (
	"context"
	"encoding/json"
	"time"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
	pkgkafka "ManifoldPulse/pkg/kafka"
)

// tickMessage is the wire schema published by the collector:
// {symbol, t, c, v} with t in unix seconds or milliseconds.
type tickMessage struct {
	Symbol string  `json:"symbol"`
	T      int64   `json:"t"`
	C      float64 `json:"c"`
	V      float64 `json:"v"`
}

func (m *tickMessage) normalize() {
	if m.T > 1e11 {
		m.T /= 1000
	}
}

func (m *tickMessage) tick() *models.Tick {
	return &models.Tick{
		Symbol:    m.Symbol,
		Timestamp: m.T,
		Price:     m.C,
		Volume:    m.V,
	}
}

// KafkaTicksHandler consumes tick messages off Kafka and persists them.
type KafkaTicksHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m tickMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	m.normalize()

	// approximate end-to-end latency from event time
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, m.tick())
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Symbol)

	// Approx lag to the candle bucket boundary (MV completion not checked)
	bucket := time.Unix(m.T, 0).UTC().Truncate(time.Minute)
	h.metrics.RecordLatency("mv_lag_seconds", time.Since(bucket).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
