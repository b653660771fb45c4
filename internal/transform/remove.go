package transform

import (
	"fmt"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// RemoveRange removes every node from the start anchor through the end
// anchor inclusive, both addressed by key. If either key is absent, or they
// appear out of order, nothing is removed: a missing anchor must never
// widen into an unbounded deletion.
func RemoveRange(startKey, endKey string) Op {
	return func(d doc.Document) (doc.Document, Note) {
		const op = "remove-range"
		start := doc.FindIndex(d.Body, doc.ByKey(startKey))
		end := doc.FindIndex(d.Body, doc.ByKey(endKey))
		if start < 0 || end < 0 {
			return unchanged(d, op, "anchor not found, removed 0 nodes")
		}
		if end < start {
			return unchanged(d, op, "anchors out of order, removed 0 nodes")
		}
		body := make([]doc.Node, 0, len(d.Body)-(end-start+1))
		body = append(body, d.Body[:start]...)
		body = append(body, d.Body[end+1:]...)
		return withBody(d, body, op, fmt.Sprintf("removed %d nodes", end-start+1))
	}
}

// RemoveMatching removes every node the anchor predicate matches,
// preserving the relative order of the rest. Used for stripping marker
// paragraphs, spam phrases, or an entire embed type.
func RemoveMatching(a doc.Anchor) Op {
	return func(d doc.Document) (doc.Document, Note) {
		const op = "remove-matching"
		body, dropped := doc.FilterBody(d.Body, func(n doc.Node) bool { return !a.Matches(n) })
		if dropped == 0 {
			return unchanged(d, op, "no matching nodes")
		}
		return withBody(d, body, op, fmt.Sprintf("removed %d nodes", dropped))
	}
}

// CollapseDuplicates drops the later of two adjacent media/embed nodes
// carrying identical payload. One left-to-right pass; already-collapsed
// bodies come back untouched, so the op is idempotent.
func CollapseDuplicates() Op {
	return func(d doc.Document) (doc.Document, Note) {
		const op = "collapse-duplicates"
		dropped := 0
		var body []doc.Node
		for i, n := range d.Body {
			if i > 0 && !n.IsBlock() {
				prev := d.Body[i-1]
				if !prev.IsBlock() && prev.Type == n.Type && prev.Fingerprint() == n.Fingerprint() {
					if dropped == 0 {
						body = make([]doc.Node, i, len(d.Body))
						copy(body, d.Body[:i])
					}
					dropped++
					continue
				}
			}
			if dropped > 0 {
				body = append(body, n)
			}
		}
		if dropped == 0 {
			return unchanged(d, op, "no adjacent duplicates")
		}
		return withBody(d, body, op, fmt.Sprintf("dropped %d duplicate embeds", dropped))
	}
}
