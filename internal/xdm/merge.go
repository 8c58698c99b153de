package xdm

// Clone returns a structurally independent copy of the document. Mutating
// the clone never touches the original; the dispatcher relies on this at the
// ownership boundary.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for key, value := range src {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return cloneMap(v)
	case Document:
		return cloneMap(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// MergeWithTemplate deep-merges the document over a clone of the template.
// The document's values win wherever they are non-empty; the template fills
// everything else in. The document's eventType always survives the merge,
// whatever the template carries.
func (d Document) MergeWithTemplate(template Document) Document {
	if template == nil {
		return d.Clone()
	}
	out := template.Clone()
	mergeOver(out, d)
	if eventType := d.EventType(); eventType != "" {
		out.SetEventType(eventType)
	}
	return out
}

// mergeOver writes src values into dst, recursing into shared maps and
// skipping empty src scalars so template defaults survive.
func mergeOver(dst, src map[string]interface{}) {
	for key, srcValue := range src {
		switch sv := srcValue.(type) {
		case map[string]interface{}:
			if dv, ok := dst[key].(map[string]interface{}); ok {
				mergeOver(dv, sv)
			} else {
				dst[key] = cloneMap(sv)
			}
		case Document:
			if dv, ok := dst[key].(map[string]interface{}); ok {
				mergeOver(dv, sv)
			} else {
				dst[key] = cloneMap(sv)
			}
		case nil:
			// keep template value
		case string:
			if sv != "" {
				dst[key] = sv
			}
		default:
			dst[key] = cloneValue(srcValue)
		}
	}
}

// FillFrom copies base values into the document non-destructively: existing
// document values always win, missing branches are filled from base. Used to
// repair a degenerate document before dispatch.
func (d Document) FillFrom(base Document) {
	if base == nil {
		return
	}
	fillMissing(d, base)
}

func fillMissing(dst, src map[string]interface{}) {
	for key, srcValue := range src {
		existing, ok := dst[key]
		if !ok || existing == nil {
			dst[key] = cloneValue(srcValue)
			continue
		}
		dstMap, dstOK := existing.(map[string]interface{})
		srcMap, srcOK := asMap(srcValue)
		if dstOK && srcOK {
			fillMissing(dstMap, srcMap)
		}
	}
}

func asMap(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, true
	case Document:
		return v, true
	default:
		return nil, false
	}
}

// IsDegenerate reports whether the document lacks the structural minimum
// for a collector payload.
func (d Document) IsDegenerate() bool {
	if len(d) == 0 {
		return true
	}
	if d.path("web") == nil {
		return true
	}
	return d.path("_experience", "analytics") == nil
}
