package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/pkg/metrics"
	"beacon/pkg/retry"
)

// KafkaTransport publishes event documents to a collector topic.
type KafkaTransport struct {
	writer *kafka.Writer
	topic  string
	policy retry.Policy
	logger logger.Logger
}

func NewKafkaTransport(cfg config.KafkaConfig, log logger.Logger) *KafkaTransport {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}

	policy := retry.DefaultPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialInterval > 0 {
		policy.InitialInterval = cfg.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval > 0 {
		policy.MaxInterval = cfg.Retry.MaxInterval
	}
	if cfg.Retry.Multiplier > 0 {
		policy.Multiplier = cfg.Retry.Multiplier
	}
	if cfg.Retry.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = cfg.Retry.MaxElapsedTime
	}

	return &KafkaTransport{
		writer: w,
		topic:  cfg.Topic,
		policy: policy,
		logger: log,
	}
}

func (t *KafkaTransport) Deliver(ctx context.Context, eventType string, body []byte) error {
	msg := kafka.Message{
		Topic: t.topic,
		Key:   []byte(uuid.NewString()),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
		Time: time.Now(),
	}

	start := time.Now()
	err := retry.RetryWithCallback(ctx, t.policy, func() error {
		return t.writer.WriteMessages(ctx, msg)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues("dispatch", t.topic).Inc()
		t.logger.WarnwCtx(ctx, "Retrying collector publish",
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to write collector message: %w", err)
	}

	metrics.IncKafkaMessagesWritten("dispatch", t.topic)
	metrics.ObserveKafkaWriteDuration("dispatch", t.topic, time.Since(start))
	return nil
}

func (t *KafkaTransport) Close() error {
	return t.writer.Close()
}
