// Package store is the engine's only gateway to the external document
// store. Backends implement Store; everything above talks to the interface
// and never to a driver directly.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

var (
	// ErrNotFound means no document exists under the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrConflict means the revision guard failed: the document changed
	// underneath the caller since it was fetched.
	ErrConflict = errors.New("revision conflict")
)

// Filter selects documents by type and simple field predicates. Zero
// values mean "don't care".
type Filter struct {
	Type          string
	DraftsOnly    bool
	IncludeDrafts bool
	Locked        *bool
	Hidden        *bool
	TitleContains string
	SlugEquals    string
}

// Store is the abstract document store contract. Commit is guarded by the
// revision captured at fetch time and returns ErrConflict when it is stale;
// a successful commit returns the new revision token.
type Store interface {
	FetchByID(ctx context.Context, id string) (doc.Document, error)
	FetchByQuery(ctx context.Context, f Filter) ([]doc.Document, error)
	Commit(ctx context.Context, id, rev string, d doc.Document) (string, error)
	Create(ctx context.Context, d doc.Document) (doc.Document, error)
	Delete(ctx context.Context, id string) error
}

// Matches applies the filter to an in-memory document. The Postgres
// backend pushes the same predicates into SQL; this is the single
// definition of their meaning.
func (f Filter) Matches(d doc.Document) bool {
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.DraftsOnly && !d.IsDraft() {
		return false
	}
	if !f.DraftsOnly && !f.IncludeDrafts && d.IsDraft() {
		return false
	}
	if f.Locked != nil && d.AutoEditLock != *f.Locked {
		return false
	}
	if f.Hidden != nil && d.Hidden != *f.Hidden {
		return false
	}
	if f.TitleContains != "" && !strings.Contains(d.Title, f.TitleContains) {
		return false
	}
	if f.SlugEquals != "" && d.Slug != f.SlugEquals {
		return false
	}
	return true
}
