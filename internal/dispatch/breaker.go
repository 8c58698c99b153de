package dispatch

import (
	"context"

	"github.com/sony/gobreaker"

	"beacon/internal/config"
	"beacon/internal/logger"
	"beacon/pkg/circuitbreaker"
)

// BreakerTransport short-circuits collector sends when the backend keeps
// failing, so a dead collector never stalls the tracking pipeline.
type BreakerTransport struct {
	inner   Transport
	wrapper *circuitbreaker.Wrapper
	logger  logger.Logger
}

func NewBreakerTransport(inner Transport, cfg config.CircuitBreakerConfig, log logger.Logger) *BreakerTransport {
	cbConfig := circuitbreaker.DefaultConfig("collector")
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 {
		minRequests := cfg.MinRequests
		if minRequests == 0 {
			minRequests = 3
		}
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && ratio >= cfg.FailureRatio
		}
	}
	cbConfig.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warnw("Collector circuit breaker state changed",
			"name", name,
			"from", from.String(),
			"to", to.String(),
		)
	}

	return &BreakerTransport{
		inner:   inner,
		wrapper: circuitbreaker.NewWrapper(cbConfig),
		logger:  log,
	}
}

func (t *BreakerTransport) Deliver(ctx context.Context, eventType string, body []byte) error {
	_, err := t.wrapper.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, t.inner.Deliver(ctx, eventType, body)
	})
	t.wrapper.RecordRequest(err == nil)
	return err
}

func (t *BreakerTransport) Close() error {
	return t.inner.Close()
}
