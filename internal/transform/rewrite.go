package transform

import (
	"fmt"
	"strings"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// RewriteText replaces occurrences of old with new inside block text.
// A match contained in a single span edits only that span's text; its marks
// are untouched. A match crossing span boundaries is recombined into the
// first affected span (keeping that span's marks), the swallowed middle
// spans are emptied, and empty spans are pruned afterwards. Mark
// definitions that lose their last citing span in the process are dropped
// so the rewrite never leaves a new orphan behind.
func RewriteText(old, new string) Op {
	return func(d doc.Document) (doc.Document, Note) {
		const op = "rewrite-text"
		if old == "" {
			return unchanged(d, op, "empty search text")
		}
		replaced := 0
		body, changed := doc.MapBody(d.Body, func(n doc.Node) (doc.Node, bool) {
			if !n.IsBlock() || !strings.Contains(n.Text(), old) {
				return doc.Node{}, false
			}
			out, count := rewriteBlock(n, old, new)
			replaced += count
			return out, count > 0
		})
		if !changed {
			return unchanged(d, op, "no matches")
		}
		return withBody(d, body, op, fmt.Sprintf("replaced %d occurrences", replaced))
	}
}

func rewriteBlock(n doc.Node, old, new string) (doc.Node, int) {
	out := n.Clone()
	count := 0

	// Scan the block's full text repeatedly; searchFrom skips past each
	// replacement so a new value containing the old one cannot loop.
	searchFrom := 0
	for {
		offsets, full := spanOffsets(out.Children)
		if searchFrom > len(full) {
			break
		}
		idx := strings.Index(full[searchFrom:], old)
		if idx < 0 {
			break
		}
		idx += searchFrom
		first, last := coveringSpans(offsets, idx, idx+len(old))

		if first == last {
			s := &out.Children[first]
			local := idx - offsets[first]
			s.Text = s.Text[:local] + new + s.Text[local+len(old):]
		} else {
			start := &out.Children[first]
			start.Text = start.Text[:idx-offsets[first]] + new
			for k := first + 1; k < last; k++ {
				out.Children[k].Text = ""
			}
			endLocal := idx + len(old) - offsets[last]
			out.Children[last].Text = out.Children[last].Text[endLocal:]
		}
		count++
		searchFrom = idx + len(new)
	}
	if count == 0 {
		return n, 0
	}

	citedBefore := citedMarks(n)
	kept := out.Children[:0]
	for _, s := range out.Children {
		if s.Text != "" {
			kept = append(kept, s)
		}
	}
	out.Children = kept

	// Drop only definitions the rewrite itself orphaned; pre-existing
	// orphans are the validator's business, not ours.
	citedAfter := citedMarks(out)
	var defs []doc.MarkDef
	for _, m := range out.MarkDefs {
		if citedBefore[m.Key] && !citedAfter[m.Key] {
			continue
		}
		defs = append(defs, m)
	}
	out.MarkDefs = defs
	return out, count
}

// spanOffsets returns the starting offset of each span within the block's
// concatenated text, plus the full text itself.
func spanOffsets(spans []doc.Span) ([]int, string) {
	offsets := make([]int, len(spans))
	var b strings.Builder
	for i, s := range spans {
		offsets[i] = b.Len()
		b.WriteString(s.Text)
	}
	return offsets, b.String()
}

// coveringSpans returns the first and last span indexes touched by the
// half-open text range [from, to).
func coveringSpans(offsets []int, from, to int) (int, int) {
	first, last := 0, 0
	for i, off := range offsets {
		if off <= from {
			first = i
		}
		if off < to {
			last = i
		}
	}
	return first, last
}

func citedMarks(n doc.Node) map[string]bool {
	cited := make(map[string]bool)
	for _, s := range n.Children {
		for _, mark := range s.Marks {
			cited[mark] = true
		}
	}
	return cited
}
