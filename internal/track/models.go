package track

// PagePayload is the page environment captured by the tag client at the
// moment of the event: published data elements, the raw analytics object
// and the browser facts the rules dispatch on.
type PagePayload struct {
	DataElements map[string]interface{} `json:"data_elements"`
	Analytics    map[string]interface{} `json:"analytics_object"`
	URL          string                 `json:"url" binding:"required"`
	Referrer     string                 `json:"referrer"`
	Title        string                 `json:"title"`
	QueryParams  map[string]string      `json:"query_params"`
	SessionLinks string                 `json:"session_links"`
	PageLoadTime float64                `json:"page_load_time"`
}

type PageViewRequest struct {
	VisitorID string      `json:"visitor_id" binding:"required"`
	Page      PagePayload `json:"page" binding:"required"`
}

// LinkElement describes the clicked DOM node. The resolver walks these
// fields in order of reliability to recover a trackable link name.
type LinkElement struct {
	DataLinkName string   `json:"data_link_name"`
	ID           string   `json:"id"`
	ParentID     string   `json:"parent_id"`
	AmplitudeID  string   `json:"amplitude_id"`
	Classes      []string `json:"classes"`
}

type LinkClickRequest struct {
	VisitorID string      `json:"visitor_id" binding:"required"`
	Page      PagePayload `json:"page" binding:"required"`
	Link      LinkElement `json:"link"`
}

type NavigationRequest struct {
	VisitorID string       `json:"visitor_id" binding:"required"`
	URL       string       `json:"url" binding:"required"`
	Page      *PagePayload `json:"page"`
}

type TrackResponse struct {
	Status    string `json:"status"`
	EventType string `json:"event_type"`
	LinkName  string `json:"link_name,omitempty"`
}
