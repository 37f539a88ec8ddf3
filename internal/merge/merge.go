// Package merge folds repeated mentions of the same place into single
// records, preserving first-mention order.
package merge

import (
	"litmap/internal/location"
)

// Merge dedups mentions by canonicalized name. Output order is the order
// keys were first encountered in the input stream; it is deliberately not
// re-sorted by FirstMentionOrder, which tracks the minimum chunk index and
// can move earlier as later duplicates merge in.
func Merge(mentions []location.Mention) []location.Merged {
	byKey := make(map[string]*location.Merged)
	var order []string

	for _, m := range mentions {
		key := location.CanonicalKey(m.Name)
		if existing, ok := byKey[key]; ok {
			existing.TextReference += ", " + m.TextReference
			if m.Confidence > existing.Confidence {
				existing.Confidence = m.Confidence
			}
			if m.ChunkIndex < existing.FirstMentionOrder {
				existing.FirstMentionOrder = m.ChunkIndex
			}
			continue
		}
		byKey[key] = &location.Merged{
			Name:              m.Name,
			TextReference:     m.TextReference,
			Confidence:        m.Confidence,
			Scale:             m.Scale,
			FirstMentionOrder: m.ChunkIndex,
		}
		order = append(order, key)
	}

	out := make([]location.Merged, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// FilterScales keeps only locations whose scale is in allowed. It is a pure
// predicate pass: records are untouched and no further merging happens.
// An empty allowed set keeps everything.
func FilterScales(merged []location.Merged, allowed []location.Scale) []location.Merged {
	if len(allowed) == 0 {
		return merged
	}
	keep := make(map[location.Scale]bool, len(allowed))
	for _, s := range allowed {
		keep[s] = true
	}
	out := make([]location.Merged, 0, len(merged))
	for _, m := range merged {
		if keep[m.Scale] {
			out = append(out, m)
		}
	}
	return out
}
