package transform

import (
	"fmt"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// RepairHrefs rewrites every link mark definition whose payload carries raw
// markup, replacing it with the bare URL extracted from it. Strictly an
// extraction: keys and span references stay untouched, and a payload that
// yields nothing usable is left alone for a human.
func RepairHrefs() Op {
	return func(d doc.Document) (doc.Document, Note) {
		const op = "repair-hrefs"
		repaired := 0
		body, changed := doc.MapBody(d.Body, func(n doc.Node) (doc.Node, bool) {
			if !n.IsBlock() {
				return doc.Node{}, false
			}
			touched := false
			out := n
			for i, m := range n.MarkDefs {
				if m.Type != "link" || !doc.MalformedHref(m.Href) {
					continue
				}
				bare := doc.ExtractBareURL(m.Href)
				if bare == "" || bare == m.Href {
					continue
				}
				if !touched {
					out = n.Clone()
					touched = true
				}
				out.MarkDefs[i].Href = bare
				repaired++
			}
			return out, touched
		})
		if !changed {
			return unchanged(d, op, "no malformed hrefs")
		}
		return withBody(d, body, op, fmt.Sprintf("repaired %d hrefs", repaired))
	}
}

// BackfillKeys assigns a fresh key to every node, span, and mark definition
// that lacks one. Existing keys are never altered.
func BackfillKeys() Op {
	return func(d doc.Document) (doc.Document, Note) {
		const op = "backfill-keys"
		taken := doc.Keys(d.Body)
		filled := 0
		body, changed := doc.MapBody(d.Body, func(n doc.Node) (doc.Node, bool) {
			if !missingAnyKey(n) {
				return doc.Node{}, false
			}
			out := n.Clone()
			if out.Key == "" {
				out.Key = doc.FreshKey(taken)
				filled++
			}
			for i := range out.Children {
				if out.Children[i].Key == "" {
					out.Children[i].Key = doc.FreshKey(taken)
					filled++
				}
			}
			for i := range out.MarkDefs {
				if out.MarkDefs[i].Key == "" {
					out.MarkDefs[i].Key = doc.FreshKey(taken)
					filled++
				}
			}
			return out, true
		})
		if !changed {
			return unchanged(d, op, "no missing keys")
		}
		return withBody(d, body, op, fmt.Sprintf("assigned %d keys", filled))
	}
}

func missingAnyKey(n doc.Node) bool {
	if n.Key == "" {
		return true
	}
	for _, s := range n.Children {
		if s.Key == "" {
			return true
		}
	}
	for _, m := range n.MarkDefs {
		if m.Key == "" {
			return true
		}
	}
	return false
}
