package xdm

import (
	"fmt"
	"strings"

	"beacon/internal/constants"
	"beacon/pkg/metrics"
)

// Document is the analytics event payload sent to the collector. It keeps
// the collector's wire shape directly (nested string-keyed maps) so merging,
// cloning and serialization stay structural.
type Document map[string]interface{}

const vendorBlock = "_westernunion"

// New returns a structurally valid empty document: custom dimension maps,
// the numbered event buckets, and the web node.
func New() Document {
	return Document{
		"_experience": map[string]interface{}{
			"analytics": map[string]interface{}{
				"customDimensions": map[string]interface{}{
					"eVars":     map[string]interface{}{},
					"props":     map[string]interface{}{},
					"listProps": map[string]interface{}{},
				},
				"event1to100":   map[string]interface{}{},
				"event101to200": map[string]interface{}{},
				"event201to300": map[string]interface{}{},
				"event301to400": map[string]interface{}{},
				"event401to500": map[string]interface{}{},
			},
		},
		"web": map[string]interface{}{
			"webPageDetails": map[string]interface{}{},
			"webInteraction": map[string]interface{}{},
		},
	}
}

// ensurePath walks the nested maps, creating levels as needed.
func (d Document) ensurePath(keys ...string) map[string]interface{} {
	node := map[string]interface{}(d)
	for _, key := range keys {
		next, ok := node[key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			node[key] = next
		}
		node = next
	}
	return node
}

// path returns the nested map at keys, or nil when any level is missing.
func (d Document) path(keys ...string) map[string]interface{} {
	node := map[string]interface{}(d)
	for _, key := range keys {
		next, ok := node[key].(map[string]interface{})
		if !ok {
			return nil
		}
		node = next
	}
	return node
}

func bucketFor(num int) string {
	switch {
	case num < 1 || num > 500:
		return ""
	case num <= 100:
		return "event1to100"
	case num <= 200:
		return "event101to200"
	case num <= 300:
		return "event201to300"
	case num <= 400:
		return "event301to400"
	case num <= 500:
		return "event401to500"
	default:
		return ""
	}
}

// AddEvent sets the numbered event with value 1. Setting an event that is
// already present overwrites it; events are never summed.
func (d Document) AddEvent(num int) {
	d.AddEventValue(num, 0)
}

// AddEventValue sets the numbered event. A zero value records 1, matching
// the collector's convention that a bare event flag counts once.
func (d Document) AddEventValue(num int, value float64) {
	d.addEvent(num, value, "")
}

// AddEventWithID sets the numbered event with a serialization id, used to
// correlate the event with a transaction or reference code.
func (d Document) AddEventWithID(num int, value float64, serializationID string) {
	d.addEvent(num, value, serializationID)
}

func (d Document) addEvent(num int, value float64, serializationID string) {
	bucket := bucketFor(num)
	if bucket == "" {
		metrics.InvalidEventNumbersTotal.Inc()
		return
	}
	if value == 0 {
		value = 1
	}
	record := map[string]interface{}{"value": value}
	if serializationID != "" {
		record["serialization"] = map[string]interface{}{"id": serializationID}
	}
	events := d.ensurePath("_experience", "analytics", bucket)
	events[fmt.Sprintf("event%d", num)] = record
}

// EventValue returns the recorded value for the numbered event.
func (d Document) EventValue(num int) (float64, bool) {
	bucket := bucketFor(num)
	if bucket == "" {
		return 0, false
	}
	events := d.path("_experience", "analytics", bucket)
	if events == nil {
		return 0, false
	}
	record, ok := events[fmt.Sprintf("event%d", num)].(map[string]interface{})
	if !ok {
		return 0, false
	}
	value, ok := record["value"].(float64)
	return value, ok
}

func (d Document) HasEvent(num int) bool {
	_, ok := d.EventValue(num)
	return ok
}

// EventCount returns the total number of events set across all buckets.
func (d Document) EventCount() int {
	count := 0
	for _, bucket := range []string{"event1to100", "event101to200", "event201to300", "event301to400", "event401to500"} {
		if events := d.path("_experience", "analytics", bucket); events != nil {
			count += len(events)
		}
	}
	return count
}

func (d Document) SetEVar(num int, value string) {
	d.SetNamedEVar(fmt.Sprintf("eVar%d", num), value)
}

func (d Document) SetNamedEVar(name, value string) {
	d.ensurePath("_experience", "analytics", "customDimensions", "eVars")[name] = value
}

func (d Document) EVar(num int) string {
	return d.NamedEVar(fmt.Sprintf("eVar%d", num))
}

func (d Document) NamedEVar(name string) string {
	eVars := d.path("_experience", "analytics", "customDimensions", "eVars")
	if eVars == nil {
		return ""
	}
	value, _ := eVars[name].(string)
	return value
}

func (d Document) SetProp(num int, value string) {
	d.ensurePath("_experience", "analytics", "customDimensions", "props")[fmt.Sprintf("prop%d", num)] = value
}

func (d Document) Prop(num int) string {
	props := d.path("_experience", "analytics", "customDimensions", "props")
	if props == nil {
		return ""
	}
	value, _ := props[fmt.Sprintf("prop%d", num)].(string)
	return value
}

func (d Document) SetListProp(num int, value string) {
	d.ensurePath("_experience", "analytics", "customDimensions", "listProps")[fmt.Sprintf("list%d", num)] = value
}

func (d Document) ListProp(num int) string {
	listProps := d.path("_experience", "analytics", "customDimensions", "listProps")
	if listProps == nil {
		return ""
	}
	value, _ := listProps[fmt.Sprintf("list%d", num)].(string)
	return value
}

func (d Document) SetEventType(eventType string) {
	d["eventType"] = eventType
}

func (d Document) EventType() string {
	eventType, _ := d["eventType"].(string)
	return eventType
}

func (d Document) SetPageName(name string) {
	d.ensurePath("web", "webPageDetails")["name"] = name
}

func (d Document) PageName() string {
	details := d.path("web", "webPageDetails")
	if details == nil {
		return ""
	}
	name, _ := details["name"].(string)
	return name
}

func (d Document) SetSiteSection(section string) {
	d.ensurePath("web", "webPageDetails")["siteSection"] = section
}

func (d Document) SetIsErrorPage(isError bool) {
	d.ensurePath("web", "webPageDetails")["isErrorPage"] = isError
}

func (d Document) SetCurrentURL(url string) {
	if url == "" {
		return
	}
	d.ensurePath("web", "webPageDetails")["URL"] = url
}

func (d Document) SetInteractionName(name string) {
	d.ensurePath("web", "webInteraction")["name"] = name
}

func (d Document) InteractionName() string {
	interaction := d.path("web", "webInteraction")
	if interaction == nil {
		return ""
	}
	name, _ := interaction["name"].(string)
	return name
}

// EnsurePageView clones the document and forces the page-view shape: the
// pageViews flag set, a non-empty page name, no link-click residue, and the
// page-view event type.
func (d Document) EnsurePageView(defaultName string) Document {
	out := d.Clone()
	details := out.ensurePath("web", "webPageDetails")
	details["pageViews"] = map[string]interface{}{"value": float64(1)}
	if name, _ := details["name"].(string); name == "" {
		details["name"] = defaultName
	}
	if interaction := out.path("web", "webInteraction"); interaction != nil {
		delete(interaction, "linkClicks")
	}
	out.SetEventType(constants.EventTypePageView)
	return out
}

// EnsureLinkClick clones the document and forces the link-click shape.
func (d Document) EnsureLinkClick(defaultName string) Document {
	out := d.Clone()
	interaction := out.ensurePath("web", "webInteraction")
	if name, _ := interaction["name"].(string); name == "" {
		interaction["name"] = defaultName
	}
	interaction["linkClicks"] = map[string]interface{}{"value": float64(1)}
	if details := out.path("web", "webPageDetails"); details != nil {
		delete(details, "pageViews")
	}
	out.SetEventType(constants.EventTypeLinkClick)
	return out
}

// SetIdentity records an identity entry under the namespace. Blank ids are
// dropped outright; an identity map entry with an empty id must never reach
// the collector.
func (d Document) SetIdentity(namespace, id string, primary bool) bool {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return false
	}
	identityMap := d.ensurePath("identityMap")
	identityMap[namespace] = []interface{}{
		map[string]interface{}{
			"id":                 trimmed,
			"primary":            primary,
			"authenticatedState": "ambiguous",
		},
	}
	return true
}

func (d Document) IdentityMap() map[string]interface{} {
	return d.path("identityMap")
}

// PruneIdentityMap strips entries with missing or empty ids, then removes
// namespaces left empty.
func (d Document) PruneIdentityMap() {
	identityMap := d.path("identityMap")
	if identityMap == nil {
		return
	}
	for namespace, raw := range identityMap {
		entries, ok := raw.([]interface{})
		if !ok {
			delete(identityMap, namespace)
			continue
		}
		kept := make([]interface{}, 0, len(entries))
		for _, e := range entries {
			entry, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			id, ok := entry["id"].(string)
			if !ok || strings.TrimSpace(id) == "" {
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(identityMap, namespace)
			continue
		}
		identityMap[namespace] = kept
	}
	if len(identityMap) == 0 {
		delete(d, "identityMap")
	}
}

// SetProduct appends a product list item. An empty product name is a no-op:
// the product string is only assembled when the platform, transaction type
// and payment method are all known.
func (d Document) SetProduct(name string, price *float64, eventData map[string]interface{}) {
	if name == "" {
		return
	}
	item := map[string]interface{}{
		"name": name,
		"SKU":  name,
	}
	if price != nil {
		item["priceTotal"] = *price
	}
	if len(eventData) > 0 {
		item["eventData"] = eventData
	}
	items, _ := d["productListItems"].([]interface{})
	d["productListItems"] = append(items, item)
}

func (d Document) ProductListItems() []interface{} {
	items, _ := d["productListItems"].([]interface{})
	return items
}

// AddPurchaseEvent marks the document as a completed purchase.
func (d Document) AddPurchaseEvent(orderID string, fee *float64) {
	commerce := d.ensurePath("commerce")
	commerce["purchases"] = map[string]interface{}{"value": float64(1)}
	order := d.ensurePath("commerce", "order")
	if orderID != "" {
		order["purchaseID"] = orderID
	}
	if fee != nil {
		order["priceTotal"] = *fee
	}
}

func (d Document) SetVendorField(key, value string) {
	d.ensurePath(vendorBlock)[key] = value
}

func (d Document) VendorField(key string) string {
	vendor := d.path(vendorBlock)
	if vendor == nil {
		return ""
	}
	value, _ := vendor[key].(string)
	return value
}

// Product returns the assembled product string carried in the vendor block.
func (d Document) Product() string {
	return d.VendorField("product")
}

// Price is a convenience for the optional product price arguments.
func Price(v float64) *float64 {
	return &v
}
