// Package merge implements the deep-merge rules for partial credential
// updates. Successive platform syncs deliver partial documents; merging
// appends to arrays and recurses into nested objects instead of overwriting
// wholesale, so previously discovered accounts/pages are never lost.
package merge

// Merge combines incoming into existing and returns a new document.
// Neither input is mutated.
//
// Per key of incoming:
//   - both values are arrays  -> existing ++ incoming (append-only, no dedup)
//   - both values are objects -> recurse
//   - anything else           -> incoming overwrites
//
// Keys present only in existing are preserved untouched. The dispatch order
// matters: arrays are JSON-decoded as []any, which must be checked before the
// map case so linked-account history is appended rather than replaced.
func Merge(existing, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = cloneValue(v)
	}
	for k, inc := range incoming {
		cur, ok := out[k]
		if !ok {
			out[k] = cloneValue(inc)
			continue
		}
		switch incTyped := inc.(type) {
		case []any:
			if curArr, ok := cur.([]any); ok {
				joined := make([]any, 0, len(curArr)+len(incTyped))
				joined = append(joined, curArr...)
				for _, v := range incTyped {
					joined = append(joined, cloneValue(v))
				}
				out[k] = joined
				continue
			}
			out[k] = cloneValue(inc)
		case map[string]any:
			if curMap, ok := cur.(map[string]any); ok {
				out[k] = Merge(curMap, incTyped)
				continue
			}
			out[k] = cloneValue(inc)
		default:
			out[k] = inc
		}
	}
	return out
}

// cloneValue deep-copies maps and slices so the result never aliases an input.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
