package track

import (
	"regexp"
	"strings"
)

// specialIDs aliases element ids whose markup name differs from the name
// the reporting side expects.
var specialIDs = map[string]string{
	"fundsIn_CreditCard": "fundsin-creditcard-tile",
}

// knownLinkNames are trackable names that no prefix or pattern covers.
var knownLinkNames = map[string]struct{}{
	"update-delivery-method":      {},
	"menu-update-delivery-method": {},
	"download-app":                {},
	"doddfrankedit":               {},
	"payment-continue":            {},
	"retailct-namechange":         {},
	"fundsin-creditcard-tile":     {},
	"continue_details":            {},
	"continue_details_ta":         {},
	"sendagain_continue":          {},
}

var knownLinkPrefixes = []string{
	"btn-",
	"button-",
	"link-",
	"canceltxn-",
	"namechange-",
	"resend-",
	"rvw-resend-",
	"cont-resend-",
	"cont-add-",
	"cont-update-",
	"show-",
	"hide-",
}

var linkNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ResolveLinkName recovers the trackable name of a clicked element. An
// explicit data-linkname wins outright; otherwise the element id, parent
// id, amplitude id and class names are tried in that order against the
// known-name tables. Returns the empty string when nothing matches, in
// which case the click is tracked under the generic name.
func ResolveLinkName(el LinkElement) string {
	if name := strings.TrimSpace(el.DataLinkName); name != "" {
		return name
	}
	for _, candidate := range candidateNames(el) {
		if isKnownLinkName(candidate) {
			return candidate
		}
	}
	return ""
}

func candidateNames(el LinkElement) []string {
	var out []string
	if id := strings.TrimSpace(el.ID); id != "" {
		if alias, ok := specialIDs[id]; ok {
			id = alias
		}
		out = append(out, id)
	}
	if parent := strings.TrimSpace(el.ParentID); parent != "" {
		out = append(out, parent)
	}
	if amp := strings.TrimSpace(el.AmplitudeID); amp != "" {
		out = append(out, amp)
	}
	for _, class := range el.Classes {
		if class = strings.TrimSpace(class); class != "" {
			out = append(out, class)
		}
	}
	if len(el.Classes) > 1 {
		out = append(out, strings.Join(el.Classes, "-"))
	}
	return out
}

func isKnownLinkName(name string) bool {
	if !linkNamePattern.MatchString(name) {
		return false
	}
	if _, ok := knownLinkNames[name]; ok {
		return true
	}
	for _, prefix := range knownLinkPrefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return true
		}
	}
	return false
}
