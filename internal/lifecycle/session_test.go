package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/dispatch"
	"beacon/internal/funnel"
	"beacon/internal/logger"
	"beacon/internal/pagecontext"
	"beacon/internal/rules"
)

type countingTransport struct {
	mu       sync.Mutex
	count    int
	failures int
}

func (t *countingTransport) Deliver(ctx context.Context, eventType string, body []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failures > 0 {
		t.failures--
		return errors.New("collector unavailable")
	}
	t.count++
	return nil
}

func (t *countingTransport) Close() error { return nil }

func (t *countingTransport) delivered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func testTrackingConfig() config.TrackingConfig {
	return config.TrackingConfig{
		ReadyMaxAttempts:      2,
		ReadyPollInterval:     5 * time.Millisecond,
		PageViewRetryDelay:    10 * time.Millisecond,
		MinNavigationInterval: time.Millisecond,
		MinPageViewInterval:   time.Millisecond,
		PageNamePollInterval:  5 * time.Millisecond,
		LinkDedupeWindow:      50 * time.Millisecond,
		LinkClickDelayWindow:  5 * time.Millisecond,
		LinkClickDelayFloor:   time.Millisecond,
	}
}

func newTestSession(t *testing.T, transport dispatch.Transport) *Session {
	t.Helper()
	cfg := testTrackingConfig()
	dispatcher := dispatch.NewDispatcher(transport, nil, nil, cfg, logger.NopLogger())
	engine := rules.NewEngine(funnel.NewMemoryStore(), nil, logger.NopLogger())
	return NewSession("visitor-1", engine, dispatcher, cfg, logger.NopLogger())
}

func snapshotFor(pageName, rawURL string) *pagecontext.Snapshot {
	return &pagecontext.Snapshot{
		DataElements: map[string]interface{}{
			pagecontext.ElemPageName:      pageName,
			pagecontext.ElemPageNameEvent: pageName,
			pagecontext.ElemCountry:       "us",
		},
		Analytics: map[string]interface{}{},
		URL:       rawURL,
	}
}

func TestTrackPageViewAtMostOncePerPath(t *testing.T) {
	transport := &countingTransport{}
	session := newTestSession(t, transport)
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html?q=1"))

	require.NoError(t, session.TrackPageView(context.Background()))
	require.NoError(t, session.TrackPageView(context.Background()))

	assert.Equal(t, 1, transport.delivered())
}

func TestTrackPageViewQueryChangeStillDeduped(t *testing.T) {
	transport := &countingTransport{}
	session := newTestSession(t, transport)

	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html?q=1"))
	require.NoError(t, session.TrackPageView(context.Background()))

	// Same path, different query string: still the same page view.
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html?q=2#frag"))
	require.NoError(t, session.TrackPageView(context.Background()))

	assert.Equal(t, 1, transport.delivered())
}

func TestTrackPageViewNotReady(t *testing.T) {
	transport := &countingTransport{}
	session := newTestSession(t, transport)
	session.UpdateSnapshot(snapshotFor("", "https://example.com/us/en/home.html"))

	err := session.TrackPageView(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, transport.delivered())
}

func TestTrackPageViewRetriesOnceOnSendFailure(t *testing.T) {
	transport := &countingTransport{failures: 1}
	session := newTestSession(t, transport)
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))

	require.NoError(t, session.TrackPageView(context.Background()))

	assert.Equal(t, 1, transport.delivered())
}

func TestTrackPageViewGivesUpAfterRetry(t *testing.T) {
	transport := &countingTransport{failures: 5}
	session := newTestSession(t, transport)
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))

	err := session.TrackPageView(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, transport.delivered())
}

func TestHandleNavigationResetsPathGate(t *testing.T) {
	transport := &countingTransport{}
	session := newTestSession(t, transport)

	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))
	require.NoError(t, session.TrackPageView(context.Background()))

	time.Sleep(2 * time.Millisecond)
	session.UpdateSnapshot(snapshotFor("us:en:website:send-money:start", "https://example.com/us/en/send-money/start.html"))
	require.NoError(t, session.HandleNavigation(context.Background(), "https://example.com/us/en/send-money/start.html"))

	assert.Equal(t, 2, transport.delivered())
}

func TestTrackLinkClickDedupesSameName(t *testing.T) {
	transport := &countingTransport{}
	session := newTestSession(t, transport)
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))

	require.NoError(t, session.TrackLinkClick(context.Background(), "btn-login"))
	require.NoError(t, session.TrackLinkClick(context.Background(), "btn-login"))

	assert.Equal(t, 1, transport.delivered())
}

func TestTrackLinkClickThrottlesDistinctNames(t *testing.T) {
	transport := &countingTransport{}
	session := newTestSession(t, transport)
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))

	require.NoError(t, session.TrackLinkClick(context.Background(), "btn-login"))
	// A different link inside the global throttle window is dropped too.
	require.NoError(t, session.TrackLinkClick(context.Background(), "btn-register-user"))

	assert.Equal(t, 1, transport.delivered())
}

func TestTrackLinkClickIndependentOfPageViewGate(t *testing.T) {
	transport := &countingTransport{}
	session := newTestSession(t, transport)
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))

	// No page view tracked yet; the click still goes out.
	require.NoError(t, session.TrackLinkClick(context.Background(), "btn-login"))
	assert.Equal(t, 1, transport.delivered())
}

func TestManagerReusesSessions(t *testing.T) {
	transport := &countingTransport{}
	cfg := testTrackingConfig()
	dispatcher := dispatch.NewDispatcher(transport, nil, nil, cfg, logger.NopLogger())
	engine := rules.NewEngine(funnel.NewMemoryStore(), nil, logger.NopLogger())
	manager := NewManager(engine, dispatcher, cfg, logger.NopLogger())

	a := manager.Session("visitor-1")
	b := manager.Session("visitor-1")
	c := manager.Session("visitor-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, manager.Len())
}

func TestDetectSPAPageName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/us/en/send-money/start.html", "send-money:start"},
		{"/us/en/Send-Money/Review", "send-money:review"},
		{"/mx/es/bill-pay/receipt", "bill-pay:receipt"},
		{"/us/en/track-transfer/details", "track-transfer"},
		{"/us/en/about-us.html", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectSPAPageName(tt.path), tt.path)
	}
}

type reentrantTransport struct {
	countingTransport
	onDeliver func()
}

func (t *reentrantTransport) Deliver(ctx context.Context, eventType string, body []byte) error {
	if t.onDeliver != nil {
		cb := t.onDeliver
		t.onDeliver = nil
		cb()
	}
	return t.countingTransport.Deliver(ctx, eventType, body)
}

func TestPathGateRecordedBeforeDispatchResolves(t *testing.T) {
	// The gate closes before dispatch returns, so a track triggered while
	// the first send is still in flight sees a duplicate, not a resend.
	transport := &reentrantTransport{}
	cfg := testTrackingConfig()
	dispatcher := dispatch.NewDispatcher(transport, nil, nil, cfg, logger.NopLogger())
	engine := rules.NewEngine(funnel.NewMemoryStore(), nil, logger.NopLogger())
	session := NewSession("visitor-1", engine, dispatcher, cfg, logger.NopLogger())
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))

	transport.onDeliver = func() {
		require.NoError(t, session.TrackPageView(context.Background()))
	}

	require.NoError(t, session.TrackPageView(context.Background()))
	assert.Equal(t, 1, transport.delivered())
}

func TestEventTypesOnWire(t *testing.T) {
	transport := &recordingTransport{}
	cfg := testTrackingConfig()
	dispatcher := dispatch.NewDispatcher(transport, nil, nil, cfg, logger.NopLogger())
	engine := rules.NewEngine(funnel.NewMemoryStore(), nil, logger.NopLogger())
	session := NewSession("visitor-1", engine, dispatcher, cfg, logger.NopLogger())
	session.UpdateSnapshot(snapshotFor("us:en:website:home", "https://example.com/us/en/home.html"))

	require.NoError(t, session.TrackPageView(context.Background()))
	require.NoError(t, session.TrackLinkClick(context.Background(), "btn-login"))

	require.Len(t, transport.types, 2)
	assert.Equal(t, constants.EventTypePageView, transport.types[0])
	assert.Equal(t, constants.EventTypeLinkClick, transport.types[1])
}

type recordingTransport struct {
	mu    sync.Mutex
	types []string
}

func (t *recordingTransport) Deliver(ctx context.Context, eventType string, body []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types = append(t.types, eventType)
	return nil
}

func (t *recordingTransport) Close() error { return nil }
