// Package validate checks portable-text documents for structural and
// referential corruption. It only reads and reports; malformed input is
// what it exists to find, so nothing in here ever panics or errors out.
package validate

import (
	"fmt"
	"strings"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// Kind labels one class of finding.
type Kind string

const (
	KindFatalInput         Kind = "FatalInput"
	KindDuplicateKey       Kind = "DuplicateKey"
	KindMissingKey         Kind = "MissingKey"
	KindDanglingMarkRef    Kind = "DanglingMarkRef"
	KindOrphanMarkDef      Kind = "OrphanMarkDefinition"
	KindMalformedHref      Kind = "MalformedHref"
	KindSuspiciousTruncate Kind = "SuspiciousTruncation"
	KindDuplicateDocument  Kind = "DuplicateDocument"
)

// Fatal reports whether a finding kind is a broken invariant rather than
// an advisory heuristic. It drives severity in reports and exit codes;
// the batch runner still processes documents carrying fatal findings,
// since the repair operations target exactly those.
func (k Kind) Fatal() bool {
	switch k {
	case KindOrphanMarkDef, KindSuspiciousTruncate, KindDuplicateDocument:
		return false
	}
	return true
}

// Finding is one detected problem with node-level location.
type Finding struct {
	DocumentID string `json:"documentId"`
	NodeKey    string `json:"nodeKey,omitempty"`
	Kind       Kind   `json:"kind"`
	Detail     string `json:"detail,omitempty"`
}

func (f Finding) String() string {
	loc := f.DocumentID
	if f.NodeKey != "" {
		loc += "/" + f.NodeKey
	}
	if f.Detail == "" {
		return fmt.Sprintf("%s: %s", f.Kind, loc)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Kind, loc, f.Detail)
}

// Report is the result of validating one document.
type Report struct {
	DocumentID string    `json:"documentId"`
	Findings   []Finding `json:"findings"`
}

// Has reports whether any finding of the kind is present.
func (r Report) Has(kind Kind) bool {
	for _, f := range r.Findings {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Clean reports whether no fatal findings are present.
func (r Report) Clean() bool {
	for _, f := range r.Findings {
		if f.Kind.Fatal() {
			return false
		}
	}
	return true
}

// truncationThreshold is a heuristic, not an invariant: bodies observed in
// the wild that shrank below this were corrupted by bad batch edits. A
// finding here is surfaced for human review, never auto-repaired.
const truncationThreshold = 3

// Check validates a single document.
func Check(d doc.Document) Report {
	r := Report{DocumentID: d.ID}
	if d.ID == "" || d.Body == nil {
		r.Findings = append(r.Findings, Finding{
			DocumentID: d.ID,
			Kind:       KindFatalInput,
			Detail:     "document has no id or no body",
		})
		return r
	}

	found := func(nodeKey string, kind Kind, detail string) {
		r.Findings = append(r.Findings, Finding{DocumentID: d.ID, NodeKey: nodeKey, Kind: kind, Detail: detail})
	}

	seen := map[string]string{}
	unique := func(key, where string) {
		if key == "" {
			return
		}
		if prev, dup := seen[key]; dup {
			found(key, KindDuplicateKey, fmt.Sprintf("also used by %s", prev))
			return
		}
		seen[key] = where
	}

	for _, n := range d.Body {
		if n.Key == "" {
			found("", KindMissingKey, fmt.Sprintf("%s node without _key", n.Type))
		}
		unique(n.Key, "node")
		for _, s := range n.Children {
			unique(s.Key, "span")
		}
		for _, m := range n.MarkDefs {
			if m.Key == "" {
				found(n.Key, KindMissingKey, "markDef without _key")
			}
			unique(m.Key, "markDef")
		}
		if n.IsBlock() {
			checkBlockRefs(n, found)
		}
	}

	if len(d.Body) < truncationThreshold {
		found("", KindSuspiciousTruncate, fmt.Sprintf("body has only %d nodes", len(d.Body)))
	}
	return r
}

func checkBlockRefs(n doc.Node, found func(nodeKey string, kind Kind, detail string)) {
	defs := make(map[string]bool, len(n.MarkDefs))
	for _, m := range n.MarkDefs {
		defs[m.Key] = true
	}
	cited := make(map[string]bool, len(n.MarkDefs))
	for _, s := range n.Children {
		for _, mark := range s.Marks {
			if doc.Decorators[mark] {
				continue
			}
			if !defs[mark] {
				found(n.Key, KindDanglingMarkRef, fmt.Sprintf("span cites unknown mark %q", mark))
				continue
			}
			cited[mark] = true
		}
	}
	for _, m := range n.MarkDefs {
		if m.Key != "" && !cited[m.Key] {
			found(n.Key, KindOrphanMarkDef, fmt.Sprintf("markDef %q never cited", m.Key))
		}
		if m.Type == "link" && doc.MalformedHref(m.Href) {
			found(n.Key, KindMalformedHref, fmt.Sprintf("extractable: %s", doc.ExtractBareURL(m.Href)))
		}
	}
}

// CheckCorpus finds cross-document duplicates: identical normalized titles
// or identical slugs. A draft and its own published counterpart are the
// same logical document and never flagged against each other.
func CheckCorpus(docs []doc.Document) []Finding {
	var findings []Finding
	byTitle := map[string]doc.Document{}
	bySlug := map[string]doc.Document{}
	for _, d := range docs {
		title := NormalizeTitle(d.Title)
		if title != "" {
			if prev, ok := byTitle[title]; ok && prev.PublishedID() != d.PublishedID() {
				findings = append(findings, Finding{
					DocumentID: d.ID,
					Kind:       KindDuplicateDocument,
					Detail:     fmt.Sprintf("title duplicates %s", prev.ID),
				})
			} else if !ok {
				byTitle[title] = d
			}
		}
		if d.Slug != "" {
			if prev, ok := bySlug[d.Slug]; ok && prev.PublishedID() != d.PublishedID() {
				findings = append(findings, Finding{
					DocumentID: d.ID,
					Kind:       KindDuplicateDocument,
					Detail:     fmt.Sprintf("slug %q duplicates %s", d.Slug, prev.ID),
				})
			} else if !ok {
				bySlug[d.Slug] = d
			}
		}
	}
	return findings
}

// NormalizeTitle lowercases and collapses whitespace for duplicate checks.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
