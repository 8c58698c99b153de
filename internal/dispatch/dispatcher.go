package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/internal/xdm"
	apperrors "beacon/pkg/errors"
	"beacon/pkg/metrics"
)

// Result reports the outcome of one send.
type Result struct {
	Delivered  bool
	Superseded bool
	Delay      time.Duration
	Err        error
}

// Dispatcher owns the final leg of the pipeline: template merge, identity
// hygiene, the link-click ordering delay, supersession of stale pending
// sends, and delivery through the transport.
type Dispatcher struct {
	transport Transport
	template  xdm.Document
	archiver  *Archiver
	logger    logger.Logger

	delayWindow time.Duration
	delayFloor  time.Duration

	mu             sync.Mutex
	pending        map[string]string
	lastPageViewAt time.Time
}

func NewDispatcher(transport Transport, template xdm.Document, archiver *Archiver, cfg config.TrackingConfig, log logger.Logger) *Dispatcher {
	window := cfg.LinkClickDelayWindow
	if window == 0 {
		window = constants.LinkClickDelayWindow
	}
	floor := cfg.LinkClickDelayFloor
	if floor == 0 {
		floor = constants.LinkClickDelayFloor
	}
	if log == nil {
		log = logger.NopLogger()
	}

	return &Dispatcher{
		transport:   transport,
		template:    template,
		archiver:    archiver,
		logger:      log,
		delayWindow: window,
		delayFloor:  floor,
		pending:     make(map[string]string),
	}
}

// SendXDM delivers one document and blocks until it is sent, superseded or
// failed. The caller's document is never mutated. Errors come back in the
// Result, never as a panic.
func (d *Dispatcher) SendXDM(ctx context.Context, doc xdm.Document) Result {
	if doc == nil {
		metrics.IncEventSent("unknown", "rejected")
		return Result{Err: apperrors.ErrValidation.WithDetail("reason", "nil event document")}
	}

	merged := doc.Clone()
	if d.template != nil {
		merged = merged.MergeWithTemplate(d.template)
	}
	if merged.IsDegenerate() && d.template != nil {
		merged.FillFrom(d.template)
	}
	merged.PruneIdentityMap()

	eventType := merged.EventType()
	if eventType == "" {
		eventType = constants.EventTypePageView
		merged.SetEventType(eventType)
	}

	delay := d.computeDelay(eventType)
	key := d.register(eventType)

	if delay > 0 {
		metrics.ObserveSendDelay(delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			d.release(eventType, key)
			metrics.IncEventSent(eventType, "canceled")
			return Result{Delay: delay, Err: ctx.Err()}
		}
	}

	if !d.stillPending(eventType, key) {
		metrics.IncEventSuperseded(eventType)
		d.logger.DebugwCtx(ctx, "Pending send superseded by newer event",
			"event_type", eventType,
		)
		return Result{Superseded: true, Delay: delay}
	}
	defer d.release(eventType, key)

	body, err := json.Marshal(map[string]interface{}(merged))
	if err != nil {
		metrics.IncEventSent(eventType, "error")
		return Result{Delay: delay, Err: fmt.Errorf("failed to encode event document: %w", err)}
	}

	start := time.Now()
	if err := d.transport.Deliver(ctx, eventType, body); err != nil {
		metrics.IncEventSent(eventType, "error")
		metrics.ObserveSendDuration(eventType, "error", time.Since(start)+delay)
		d.logger.WarnwCtx(ctx, "Collector delivery failed",
			"event_type", eventType,
			"error", err,
		)
		return Result{Delay: delay, Err: err}
	}

	if eventType == constants.EventTypePageView {
		d.mu.Lock()
		d.lastPageViewAt = time.Now()
		d.mu.Unlock()
	}

	metrics.IncEventSent(eventType, "ok")
	metrics.ObserveSendDuration(eventType, "ok", time.Since(start)+delay)

	if d.archiver != nil {
		d.archiver.Record(merged, eventType)
	}

	return Result{Delivered: true, Delay: delay}
}

// computeDelay holds a link click back while a just-sent page view may
// still be in flight, so the collector never orders the click first.
func (d *Dispatcher) computeDelay(eventType string) time.Duration {
	if eventType != constants.EventTypeLinkClick {
		return 0
	}

	d.mu.Lock()
	last := d.lastPageViewAt
	d.mu.Unlock()

	if last.IsZero() {
		return 0
	}
	elapsed := time.Since(last)
	if elapsed >= d.delayWindow {
		return 0
	}

	delay := d.delayWindow - elapsed
	if delay < d.delayFloor {
		delay = d.delayFloor
	}
	return delay
}

func (d *Dispatcher) register(eventType string) string {
	key := fmt.Sprintf("pending_%s_%d_%s", eventType, time.Now().UnixMilli(), uuid.NewString())

	d.mu.Lock()
	d.pending[eventType] = key
	d.mu.Unlock()
	return key
}

func (d *Dispatcher) stillPending(eventType, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending[eventType] == key
}

func (d *Dispatcher) release(eventType, key string) {
	d.mu.Lock()
	if d.pending[eventType] == key {
		delete(d.pending, eventType)
	}
	d.mu.Unlock()
}

func (d *Dispatcher) Close() error {
	if d.transport == nil {
		return nil
	}
	return d.transport.Close()
}
