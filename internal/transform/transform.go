// Package transform implements the engine operations over portable-text
// documents. Every operation is a pure function from document to document:
// the input is never mutated, untouched subtrees are shared by identity,
// and each op reports which branch it took so batch runs stay auditable.
package transform

import (
	"fmt"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// Note records what one operation did to one document.
type Note struct {
	Op      string `json:"op"`
	Changed bool   `json:"changed"`
	Detail  string `json:"detail,omitempty"`
}

func (n Note) String() string {
	state := "unchanged"
	if n.Changed {
		state = "changed"
	}
	if n.Detail == "" {
		return fmt.Sprintf("%s: %s", n.Op, state)
	}
	return fmt.Sprintf("%s: %s, %s", n.Op, state, n.Detail)
}

// Op is a single pure transformation.
type Op func(doc.Document) (doc.Document, Note)

// Func is the shape the edit coordinator consumes: a whole transformation
// pass over one document.
type Func func(doc.Document) (doc.Document, []Note)

// Compose runs ops in caller order, threading the document through and
// collecting every note. The composition itself is pure.
func Compose(ops ...Op) Func {
	return func(d doc.Document) (doc.Document, []Note) {
		notes := make([]Note, 0, len(ops))
		for _, op := range ops {
			var note Note
			d, note = op(d)
			notes = append(notes, note)
		}
		return d, notes
	}
}

func unchanged(d doc.Document, op, detail string) (doc.Document, Note) {
	return d, Note{Op: op, Detail: detail}
}

func withBody(d doc.Document, body []doc.Node, op, detail string) (doc.Document, Note) {
	out := d
	out.Body = body
	return out, Note{Op: op, Changed: true, Detail: detail}
}
