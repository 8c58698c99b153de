package lifecycle

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/dispatch"
	"beacon/internal/logger"
	"beacon/internal/pagecontext"
	"beacon/internal/rules"
	"beacon/internal/xdm"
	apperrors "beacon/pkg/errors"
	"beacon/pkg/metrics"
	"beacon/pkg/retry"
)

type trackState int

const (
	stateIdle trackState = iota
	stateAttempting
	stateSent
)

// Session owns the mutable tracking state of one visitor: the current page
// context, the page-view state machine and the click dedupe windows. All
// state lives behind the mutex; nothing is package-global.
type Session struct {
	visitorID  string
	engine     *rules.Engine
	dispatcher *dispatch.Dispatcher
	logger     logger.Logger
	cfg        config.TrackingConfig

	mu              sync.Mutex
	snap            *pagecontext.Snapshot
	state           trackState
	lastTrackedPath string
	lastPageViewAt  time.Time
	lastNavAt       time.Time
	lastPageName    string
	lastLinkName    string
	lastLinkAt      time.Time
	lastClickAt     time.Time
}

func NewSession(visitorID string, engine *rules.Engine, dispatcher *dispatch.Dispatcher, cfg config.TrackingConfig, log logger.Logger) *Session {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Session{
		visitorID:  visitorID,
		engine:     engine,
		dispatcher: dispatcher,
		logger:     log,
		cfg:        resolveDefaults(cfg),
	}
}

func resolveDefaults(cfg config.TrackingConfig) config.TrackingConfig {
	if cfg.ReadyMaxAttempts == 0 {
		cfg.ReadyMaxAttempts = constants.ReadyMaxAttempts
	}
	if cfg.ReadyPollInterval == 0 {
		cfg.ReadyPollInterval = constants.ReadyPollInterval
	}
	if cfg.PageViewRetryDelay == 0 {
		cfg.PageViewRetryDelay = constants.PageViewRetryDelay
	}
	if cfg.MinNavigationInterval == 0 {
		cfg.MinNavigationInterval = constants.MinNavigationInterval
	}
	if cfg.MinPageViewInterval == 0 {
		cfg.MinPageViewInterval = constants.MinPageViewInterval
	}
	if cfg.PageNamePollInterval == 0 {
		cfg.PageNamePollInterval = constants.PageNamePollInterval
	}
	if cfg.LinkDedupeWindow == 0 {
		cfg.LinkDedupeWindow = constants.LinkDedupeWindow
	}
	return cfg
}

// UpdateSnapshot publishes the latest page context for this visitor. The
// ingest layer calls it before triggering tracking.
func (s *Session) UpdateSnapshot(snap *pagecontext.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *Session) currentSnapshot() *pagecontext.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// TrackPageView runs one page-view attempt: readiness polling, the
// at-most-once-per-path gate, build, rules and dispatch, with a single
// delayed retry on failure.
func (s *Session) TrackPageView(ctx context.Context) error {
	snap, err := s.awaitReady(ctx)
	if err != nil {
		metrics.IncPageViewAttempt("not_ready")
		return err
	}

	path := urlPath(snap.URL)

	s.mu.Lock()
	if s.state == stateSent && path != "" && path == s.lastTrackedPath {
		s.mu.Unlock()
		metrics.IncPageViewAttempt("duplicate")
		return nil
	}
	s.state = stateAttempting
	s.mu.Unlock()

	policy := retry.Policy{
		MaxAttempts:     2,
		InitialInterval: s.cfg.PageViewRetryDelay,
		MaxInterval:     s.cfg.PageViewRetryDelay,
		Multiplier:      1.0,
	}

	err = retry.Retry(ctx, policy, func() error {
		return s.attemptPageView(ctx, snap, path)
	})
	if err != nil {
		s.mu.Lock()
		s.state = stateIdle
		s.mu.Unlock()
		metrics.IncPageViewAttempt("failed")
		return err
	}

	metrics.IncPageViewAttempt("sent")
	return nil
}

func (s *Session) attemptPageView(ctx context.Context, snap *pagecontext.Snapshot, path string) error {
	acc := pagecontext.NewAccessor(snap, s.logger)
	pageName := acc.GetString(pagecontext.ElemPageName, "")

	doc := xdm.BuildBaseXDM(acc, s.logger)
	doc = doc.EnsurePageView(pageName)
	if err := s.engine.ApplyPageViewRules(ctx, acc, doc, s.visitorID); err != nil {
		metrics.IncEventBuilt(constants.EventTypePageView, "error")
		return fmt.Errorf("page view build failed: %w", err)
	}
	metrics.IncEventBuilt(constants.EventTypePageView, "ok")

	// Sent is recorded before the dispatch resolves so a concurrent
	// navigation can never double-track the same path.
	s.mu.Lock()
	s.state = stateSent
	s.lastTrackedPath = path
	s.mu.Unlock()

	res := s.dispatcher.SendXDM(ctx, doc)
	if res.Err != nil {
		s.mu.Lock()
		s.state = stateIdle
		s.mu.Unlock()
		return res.Err
	}

	s.mu.Lock()
	s.lastPageViewAt = time.Now()
	s.lastPageName = pageName
	s.mu.Unlock()
	return nil
}

// awaitReady polls until the page context carries a page name, up to the
// configured attempt budget.
func (s *Session) awaitReady(ctx context.Context) (*pagecontext.Snapshot, error) {
	for attempt := 0; attempt < s.cfg.ReadyMaxAttempts; attempt++ {
		snap := s.currentSnapshot()
		if snap != nil {
			acc := pagecontext.NewAccessor(snap, s.logger)
			if acc.GetString(pagecontext.ElemPageName, "") != "" {
				return snap, nil
			}
		}

		select {
		case <-time.After(s.cfg.ReadyPollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, apperrors.ErrTimeout.
		WithDetail("reason", "page context not ready").
		WithDetail("attempts", s.cfg.ReadyMaxAttempts)
}

// HandleNavigation reacts to a location change: a new path resets the
// page-view gate, and a short settle delay lets the page context publish
// before re-tracking.
func (s *Session) HandleNavigation(ctx context.Context, rawURL string) error {
	now := time.Now()
	path := urlPath(rawURL)

	s.mu.Lock()
	if now.Sub(s.lastNavAt) < s.cfg.MinNavigationInterval {
		s.mu.Unlock()
		return nil
	}
	s.lastNavAt = now
	if path != s.lastTrackedPath {
		s.state = stateIdle
	}
	s.mu.Unlock()

	select {
	case <-time.After(constants.NavigationRetrackWait):
	case <-ctx.Done():
		return ctx.Err()
	}

	return s.TrackPageView(ctx)
}

// StartPageNamePoller re-tracks when the published page name changes under
// the same URL, which is how single-page funnel steps surface.
func (s *Session) StartPageNamePoller(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PageNamePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.pollPageName(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) pollPageName(ctx context.Context) {
	snap := s.currentSnapshot()
	if snap == nil {
		return
	}
	acc := pagecontext.NewAccessor(snap, s.logger)
	name := acc.GetString(pagecontext.ElemPageName, "")
	if name == "" {
		return
	}

	s.mu.Lock()
	changed := s.lastPageName != "" && name != s.lastPageName
	settled := time.Since(s.lastPageViewAt) >= s.cfg.MinPageViewInterval
	if changed && settled {
		s.state = stateIdle
	}
	s.mu.Unlock()

	if changed && settled {
		if err := s.TrackPageView(ctx); err != nil {
			s.logger.WarnwCtx(ctx, "Page-name poller re-track failed",
				"page_name", name,
				"error", err,
			)
		}
	}
}

// TrackLinkClick tags and sends one link click. Clicks are independent of
// the page-view gate but deduped per link name and throttled globally.
func (s *Session) TrackLinkClick(ctx context.Context, linkName string) error {
	now := time.Now()

	s.mu.Lock()
	if linkName != "" && linkName == s.lastLinkName && now.Sub(s.lastLinkAt) < s.cfg.LinkDedupeWindow {
		s.mu.Unlock()
		metrics.LinkClicksDedupedTotal.Inc()
		return nil
	}
	if now.Sub(s.lastClickAt) < constants.LinkClickThrottle {
		s.mu.Unlock()
		metrics.LinkClicksDedupedTotal.Inc()
		return nil
	}
	s.lastLinkName = linkName
	s.lastLinkAt = now
	s.lastClickAt = now
	snap := s.snap
	s.mu.Unlock()

	if snap == nil {
		return fmt.Errorf("no page context for link click %q", linkName)
	}

	acc := pagecontext.NewAccessor(snap, s.logger)
	doc := xdm.BuildBaseXDM(acc, s.logger)

	clickName := linkName
	if clickName == "" {
		clickName = constants.DefaultLinkClickName
	}
	doc = doc.EnsureLinkClick(clickName)

	if err := s.engine.ApplyLinkClickRules(ctx, acc, doc, s.visitorID); err != nil {
		metrics.IncEventBuilt(constants.EventTypeLinkClick, "error")
		return fmt.Errorf("link click build failed: %w", err)
	}
	metrics.IncEventBuilt(constants.EventTypeLinkClick, "ok")

	res := s.dispatcher.SendXDM(ctx, doc)
	return res.Err
}

func urlPath(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
