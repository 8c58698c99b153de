package track

import (
	"context"
	"net/url"

	"beacon/internal/constants"
	"beacon/internal/lifecycle"
	"beacon/internal/logger"
	"beacon/internal/pagecontext"
)

// Service turns ingest requests into session tracking calls. It owns the
// snapshot construction boundary: payload maps are copied here so nothing
// downstream aliases request memory.
type Service struct {
	manager *lifecycle.Manager
	logger  logger.Logger
}

func NewService(manager *lifecycle.Manager, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Service{manager: manager, logger: log}
}

func (s *Service) TrackPageView(ctx context.Context, req PageViewRequest) error {
	session := s.manager.Session(req.VisitorID)
	session.UpdateSnapshot(snapshotFrom(req.Page))
	return session.TrackPageView(ctx)
}

// TrackLinkClick resolves the clicked element to a link name, publishes it
// into the page context so the click rules can read it, and tracks the
// click. The resolved name is returned for the response body.
func (s *Service) TrackLinkClick(ctx context.Context, req LinkClickRequest) (string, error) {
	linkName := ResolveLinkName(req.Link)

	snap := snapshotFrom(req.Page)
	if linkName != "" {
		snap.DataElements[pagecontext.ElemLinkID] = linkName
	}

	session := s.manager.Session(req.VisitorID)
	session.UpdateSnapshot(snap)

	if err := session.TrackLinkClick(ctx, linkName); err != nil {
		return linkName, err
	}
	if linkName == "" {
		linkName = constants.DefaultLinkClickName
	}
	return linkName, nil
}

func (s *Service) Navigate(ctx context.Context, req NavigationRequest) error {
	session := s.manager.Session(req.VisitorID)
	if req.Page != nil {
		session.UpdateSnapshot(snapshotFrom(*req.Page))
	}
	return session.HandleNavigation(ctx, req.URL)
}

// Sessions reports the number of live visitor sessions.
func (s *Service) Sessions() int {
	return s.manager.Len()
}

func snapshotFrom(p PagePayload) *pagecontext.Snapshot {
	data := make(map[string]interface{}, len(p.DataElements))
	for k, v := range p.DataElements {
		data[k] = v
	}
	analytics := make(map[string]interface{}, len(p.Analytics))
	for k, v := range p.Analytics {
		analytics[k] = v
	}
	params := make(map[string]string, len(p.QueryParams))
	for k, v := range p.QueryParams {
		params[k] = v
	}

	// Single-page funnel steps often render before the tag environment
	// publishes a page name; fall back to the route table.
	if stringValue(data, pagecontext.ElemPageName) == "" {
		if spa := lifecycle.DetectSPAPageName(pathOf(p.URL)); spa != "" {
			data[pagecontext.ElemPageName] = spa
			if stringValue(data, pagecontext.ElemPageNameEvent) == "" {
				data[pagecontext.ElemPageNameEvent] = spa
			}
		}
	}

	return &pagecontext.Snapshot{
		DataElements: data,
		Analytics:    analytics,
		URL:          p.URL,
		Referrer:     p.Referrer,
		Title:        p.Title,
		QueryParams:  params,
		SessionLinks: p.SessionLinks,
		PageLoadTime: p.PageLoadTime,
	}
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
