package dispatch

import (
	"context"
	"fmt"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
)

// Transport delivers a fully built event document to the collector.
type Transport interface {
	Deliver(ctx context.Context, eventType string, body []byte) error
	Close() error
}

// NewTransport builds the configured transport, wrapped in a circuit
// breaker when one is enabled.
func NewTransport(cfg config.CollectorConfig, cb config.CircuitBreakerConfig, log logger.Logger) (Transport, error) {
	var transport Transport
	switch cfg.Type {
	case constants.TransportHTTP:
		transport = NewHTTPTransport(cfg.HTTP, log)
	case constants.TransportKafka:
		transport = NewKafkaTransport(cfg.Kafka, log)
	default:
		return nil, fmt.Errorf("unknown collector type: %s", cfg.Type)
	}

	if cb.Enabled {
		transport = NewBreakerTransport(transport, cb, log)
	}
	return transport, nil
}
