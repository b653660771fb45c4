// Package doc defines the portable-text document model: an ordered body of
// typed nodes where inline spans carry marks resolved against block-scoped
// mark definitions. Everything in this package is pure; functions return new
// values and never mutate their inputs.
package doc

import "strings"

// DraftPrefix relates a draft shadow copy to its published counterpart.
// "drafts.abc" is the draft of the published document "abc". The two are
// independent documents with independent revisions.
const DraftPrefix = "drafts."

// Document is the aggregate root fetched from and committed to the store.
type Document struct {
	ID           string   `json:"_id"`
	Rev          string   `json:"_rev,omitempty"`
	Type         string   `json:"_type"`
	Title        string   `json:"title"`
	Slug         string   `json:"slug,omitempty"`
	Excerpt      string   `json:"excerpt,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Hidden       bool     `json:"hidden,omitempty"`
	AutoEditLock bool     `json:"autoEditLock,omitempty"`
	Body         []Node   `json:"body"`
}

// IsDraft reports whether the document is a draft shadow copy.
func (d Document) IsDraft() bool {
	return strings.HasPrefix(d.ID, DraftPrefix)
}

// PublishedID returns the id of the published counterpart. For a published
// document it returns the id unchanged.
func (d Document) PublishedID() string {
	return strings.TrimPrefix(d.ID, DraftPrefix)
}

// DraftID returns the id of the draft counterpart.
func (d Document) DraftID() string {
	if d.IsDraft() {
		return d.ID
	}
	return DraftPrefix + d.ID
}

// Clone returns a deep copy of the document. Transformations operate on
// clones so a failed pass never leaves a shared tree half-edited.
func (d Document) Clone() Document {
	out := d
	out.Categories = append([]string(nil), d.Categories...)
	out.Tags = append([]string(nil), d.Tags...)
	if d.Body != nil {
		out.Body = make([]Node, len(d.Body))
		for i, n := range d.Body {
			out.Body[i] = n.Clone()
		}
	}
	return out
}
