package doc

import "strings"

// Position places inserted nodes relative to an anchor.
type Position int

const (
	Before Position = iota
	After
)

// Anchor locates a node in a body. Set fields combine with AND: a Key match
// alone, or any combination of Type, Style, TextEquals and TextContains.
// Matching semantics live here and nowhere else.
type Anchor struct {
	Key          string
	Type         string
	Style        string
	TextEquals   string
	TextContains string
}

// ByKey anchors on an exact node key.
func ByKey(key string) Anchor { return Anchor{Key: key} }

// ByType anchors on the first node of a type (e.g. an embed type).
func ByType(nodeType string) Anchor { return Anchor{Type: nodeType} }

// ByTextContains anchors on the first block whose text contains substr.
func ByTextContains(substr string) Anchor { return Anchor{TextContains: substr} }

// ByHeading anchors on the first block of a style with exactly this text.
func ByHeading(style, text string) Anchor { return Anchor{Style: style, TextEquals: text} }

// Matches reports whether the anchor selects this node.
func (a Anchor) Matches(n Node) bool {
	if a.Key != "" {
		return n.Key == a.Key
	}
	if a.Type != "" && n.Type != a.Type {
		return false
	}
	if a.Style != "" && n.Style != a.Style {
		return false
	}
	if a.TextEquals != "" && strings.TrimSpace(n.Text()) != a.TextEquals {
		return false
	}
	if a.TextContains != "" && !strings.Contains(n.Text(), a.TextContains) {
		return false
	}
	return a.Type != "" || a.Style != "" || a.TextEquals != "" || a.TextContains != ""
}

// FindIndex returns the index of the first matching node, or -1.
func FindIndex(body []Node, a Anchor) int {
	for i, n := range body {
		if a.Matches(n) {
			return i
		}
	}
	return -1
}

// Walk visits every node in document order. Returning false stops the walk.
func Walk(body []Node, visit func(n Node) bool) {
	for _, n := range body {
		if !visit(n) {
			return
		}
	}
}

// WalkSpans visits every span with its enclosing block.
func WalkSpans(body []Node, visit func(block Node, s Span) bool) {
	for _, n := range body {
		if !n.IsBlock() {
			continue
		}
		for _, s := range n.Children {
			if !visit(n, s) {
				return
			}
		}
	}
}

// MapBody rebuilds a body by applying fn to each node. Nodes fn leaves
// alone are carried over by identity, and when nothing changes the original
// slice is returned, so callers can detect no-op passes cheaply.
func MapBody(body []Node, fn func(Node) (Node, bool)) ([]Node, bool) {
	var out []Node
	changed := false
	for i, n := range body {
		replacement, ok := fn(n)
		if ok && !changed {
			changed = true
			out = make([]Node, i, len(body))
			copy(out, body[:i])
		}
		if changed {
			if ok {
				out = append(out, replacement)
			} else {
				out = append(out, n)
			}
		}
	}
	if !changed {
		return body, false
	}
	return out, true
}

// FilterBody keeps the nodes for which keep returns true, preserving order.
// The original slice is returned untouched when nothing is dropped.
func FilterBody(body []Node, keep func(Node) bool) ([]Node, int) {
	var out []Node
	dropped := 0
	for i, n := range body {
		if keep(n) {
			if dropped > 0 {
				out = append(out, n)
			}
			continue
		}
		if dropped == 0 {
			out = make([]Node, i, len(body))
			copy(out, body[:i])
		}
		dropped++
	}
	if dropped == 0 {
		return body, 0
	}
	return out, dropped
}
