package transform

import (
	"fmt"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// InsertNodes inserts the given nodes immediately before or after the first
// node the anchor matches. When the anchor matches nothing the nodes are
// appended at the end and the note says so; the op never guesses a middle
// position. Inserting is idempotent: if nodes of the same shape already sit
// at the target position the op is a no-op. Inserted nodes are re-keyed
// against the document so one template can be stamped into many documents.
func InsertNodes(anchor doc.Anchor, pos doc.Position, nodes []doc.Node) Op {
	return func(d doc.Document) (doc.Document, Note) {
		const op = "insert-nodes"
		if len(nodes) == 0 {
			return unchanged(d, op, "nothing to insert")
		}

		at := len(d.Body)
		branch := "appended at end, anchor not found"
		if idx := doc.FindIndex(d.Body, anchor); idx >= 0 {
			if pos == doc.Before {
				at = idx
				branch = fmt.Sprintf("inserted before node %d", idx)
			} else {
				at = idx + 1
				branch = fmt.Sprintf("inserted after node %d", idx)
			}
		}

		if present(d.Body, at, nodes) {
			return unchanged(d, op, "identical content already at target position")
		}

		taken := doc.Keys(d.Body)
		fresh := make([]doc.Node, len(nodes))
		for i, n := range nodes {
			fresh[i] = doc.Rekey(n, taken)
		}

		body := make([]doc.Node, 0, len(d.Body)+len(fresh))
		body = append(body, d.Body[:at]...)
		body = append(body, fresh...)
		body = append(body, d.Body[at:]...)
		return withBody(d, body, op, branch)
	}
}

// present checks both sides of the insertion point for an existing copy of
// the nodes, so repeating an insert before or after the same anchor finds
// the previous run's output.
func present(body []doc.Node, at int, nodes []doc.Node) bool {
	if at+len(nodes) <= len(body) && doc.EqualShapes(body[at:at+len(nodes)], nodes) {
		return true
	}
	if at-len(nodes) >= 0 && doc.EqualShapes(body[at-len(nodes):at], nodes) {
		return true
	}
	return false
}
