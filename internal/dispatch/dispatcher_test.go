package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/internal/xdm"
)

type fakeTransport struct {
	mu         sync.Mutex
	deliveries []fakeDelivery
	err        error
}

type fakeDelivery struct {
	eventType string
	body      []byte
}

func (t *fakeTransport) Deliver(ctx context.Context, eventType string, body []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.deliveries = append(t.deliveries, fakeDelivery{eventType: eventType, body: body})
	return nil
}

func (t *fakeTransport) Close() error { return nil }

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.deliveries)
}

func fastTrackingConfig() config.TrackingConfig {
	return config.TrackingConfig{
		LinkClickDelayWindow: 80 * time.Millisecond,
		LinkClickDelayFloor:  10 * time.Millisecond,
	}
}

func newPageView() xdm.Document {
	doc := xdm.New()
	doc.SetPageName("us:en:website:send-money:start")
	return doc.EnsurePageView("us:en:website:send-money:start")
}

func newLinkClick() xdm.Document {
	doc := xdm.New()
	doc.SetPageName("us:en:website:send-money:start")
	return doc.EnsureLinkClick("btn-login")
}

func TestSendXDMRejectsNil(t *testing.T) {
	d := NewDispatcher(&fakeTransport{}, nil, nil, fastTrackingConfig(), logger.NopLogger())

	res := d.SendXDM(context.Background(), nil)

	assert.Error(t, res.Err)
	assert.False(t, res.Delivered)
}

func TestSendXDMDeliversPageView(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, nil, nil, fastTrackingConfig(), logger.NopLogger())

	doc := newPageView()
	res := d.SendXDM(context.Background(), doc)

	require.NoError(t, res.Err)
	assert.True(t, res.Delivered)
	assert.Zero(t, res.Delay)
	require.Equal(t, 1, transport.count())
	assert.Equal(t, constants.EventTypePageView, transport.deliveries[0].eventType)
}

func TestSendXDMDoesNotMutateCaller(t *testing.T) {
	transport := &fakeTransport{}
	template := xdm.New()
	template.SetNamedEVar("eVar1", "template-value")
	d := NewDispatcher(transport, template, nil, fastTrackingConfig(), logger.NopLogger())

	doc := newPageView()
	before := doc.Clone()

	res := d.SendXDM(context.Background(), doc)
	require.NoError(t, res.Err)

	assert.Equal(t, before, doc)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(transport.deliveries[0].body, &sent))
	analytics := sent["_experience"].(map[string]interface{})["analytics"].(map[string]interface{})
	eVars := analytics["customDimensions"].(map[string]interface{})["eVars"].(map[string]interface{})
	assert.Equal(t, "template-value", eVars["eVar1"])
}

func TestSendXDMEventTypeSurvivesTemplateMerge(t *testing.T) {
	transport := &fakeTransport{}
	template := xdm.New()
	template.SetEventType(constants.EventTypePageView)
	d := NewDispatcher(transport, template, nil, fastTrackingConfig(), logger.NopLogger())

	res := d.SendXDM(context.Background(), newLinkClick())

	require.NoError(t, res.Err)
	require.Equal(t, 1, transport.count())
	assert.Equal(t, constants.EventTypeLinkClick, transport.deliveries[0].eventType)
}

func TestSendXDMTransportErrorInResult(t *testing.T) {
	transport := &fakeTransport{err: errors.New("collector down")}
	d := NewDispatcher(transport, nil, nil, fastTrackingConfig(), logger.NopLogger())

	res := d.SendXDM(context.Background(), newPageView())

	assert.Error(t, res.Err)
	assert.False(t, res.Delivered)
	assert.False(t, res.Superseded)
}

func TestSendXDMLinkClickDelayedAfterPageView(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, nil, nil, fastTrackingConfig(), logger.NopLogger())

	require.NoError(t, d.SendXDM(context.Background(), newPageView()).Err)

	start := time.Now()
	res := d.SendXDM(context.Background(), newLinkClick())
	elapsed := time.Since(start)

	require.NoError(t, res.Err)
	assert.True(t, res.Delivered)
	assert.Greater(t, res.Delay, time.Duration(0))
	assert.GreaterOrEqual(t, elapsed, res.Delay)
}

func TestSendXDMLinkClickNotDelayedWithoutPageView(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, nil, nil, fastTrackingConfig(), logger.NopLogger())

	res := d.SendXDM(context.Background(), newLinkClick())

	require.NoError(t, res.Err)
	assert.Zero(t, res.Delay)
}

func TestSendXDMSupersession(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, nil, nil, fastTrackingConfig(), logger.NopLogger())

	require.NoError(t, d.SendXDM(context.Background(), newPageView()).Err)

	results := make(chan Result, 1)
	go func() {
		results <- d.SendXDM(context.Background(), newLinkClick())
	}()

	// Let the first click enter its ordering delay, then supersede it.
	time.Sleep(20 * time.Millisecond)
	second := d.SendXDM(context.Background(), newLinkClick())
	first := <-results

	require.NoError(t, second.Err)
	assert.True(t, second.Delivered)
	assert.True(t, first.Superseded)
	assert.False(t, first.Delivered)
	assert.NoError(t, first.Err)

	// One page view plus exactly one click reached the collector.
	assert.Equal(t, 2, transport.count())
}

func TestSendXDMContextCancelDuringDelay(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, nil, nil, fastTrackingConfig(), logger.NopLogger())

	require.NoError(t, d.SendXDM(context.Background(), newPageView()).Err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res := d.SendXDM(ctx, newLinkClick())
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, transport.count())
}
