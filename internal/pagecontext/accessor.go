package pagecontext

import (
	"fmt"
	"strconv"
	"strings"

	"beacon/internal/logger"
)

// Accessor reads named values out of a Snapshot with a default-on-missing
// policy. Reads never fail: absent keys, nil values and empty strings all
// yield the caller's default, and type mismatches are logged and swallowed.
type Accessor struct {
	snap   *Snapshot
	logger logger.Logger
}

func NewAccessor(snap *Snapshot, log logger.Logger) *Accessor {
	if snap == nil {
		snap = &Snapshot{}
	}
	if log == nil {
		log = logger.NopLogger()
	}
	return &Accessor{snap: snap, logger: log}
}

func (a *Accessor) Snapshot() *Snapshot {
	return a.snap
}

// Get returns the data element value for name, or def when the element is
// absent, nil, or an empty string.
func (a *Accessor) Get(name string, def interface{}) interface{} {
	if a.snap.DataElements == nil {
		return def
	}
	v, ok := a.snap.DataElements[name]
	if !ok || v == nil {
		return def
	}
	if s, isStr := v.(string); isStr && s == "" {
		return def
	}
	return v
}

func (a *Accessor) GetString(name, def string) string {
	v := a.Get(name, def)
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		a.logger.Debugw("Data element has unexpected type, using default",
			"element", name,
			"type", fmt.Sprintf("%T", v),
		)
		return def
	}
}

func (a *Accessor) GetBool(name string, def bool) bool {
	v := a.Get(name, def)
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return def
	}
}

func (a *Accessor) GetFloat(name string, def float64) float64 {
	v := a.Get(name, def)
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// AnalyticsValue reads a key from the analytics object, lower-casing string
// results. The analytics object itself being absent yields the default.
func (a *Accessor) AnalyticsValue(key, def string) string {
	if a.snap.Analytics == nil {
		return def
	}
	v, ok := a.snap.Analytics[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return def
		}
		return strings.ToLower(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return def
	}
}

// AnalyticsValueSet reports whether the key is present on the analytics
// object with a non-nil value, without lower-casing or defaulting. Several
// rules distinguish "unset" from "set to any value".
func (a *Accessor) AnalyticsValueSet(key string) bool {
	if a.snap.Analytics == nil {
		return false
	}
	v, ok := a.snap.Analytics[key]
	return ok && v != nil
}

func (a *Accessor) QueryParam(name string) string {
	if a.snap.QueryParams == nil {
		return ""
	}
	return a.snap.QueryParams[name]
}

func (a *Accessor) Referrer() string {
	return a.snap.Referrer
}

func (a *Accessor) Title() string {
	return a.snap.Title
}

func (a *Accessor) URL() string {
	return a.snap.URL
}

func (a *Accessor) SessionLinks() string {
	return a.snap.SessionLinks
}

func (a *Accessor) PageLoadTime() float64 {
	return a.snap.PageLoadTime
}
