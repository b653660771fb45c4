// Package coordinator applies transformations to stored documents under
// the edit-safety rules: locked documents are skipped, no-op results are
// never written, and every write is guarded by the fetch-time revision.
package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
	"github.com/sasayosh1/prorenata-sub004/internal/store"
	"github.com/sasayosh1/prorenata-sub004/internal/transform"
)

// Outcome classifies what happened to one document.
type Outcome string

const (
	OutcomeCommitted     Outcome = "committed"
	OutcomeDryRun        Outcome = "dry-run"
	OutcomeSkippedLocked Outcome = "skipped-locked"
	OutcomeSkippedNoOp   Outcome = "skipped-no-change"
	OutcomeConflict      Outcome = "conflict"
	OutcomeError         Outcome = "error"
)

// CommitResult reports the outcome of applying a transformation to one
// document.
type CommitResult struct {
	DocumentID string
	Outcome    Outcome
	NewRev     string
	Notes      []transform.Note
	Err        error
}

// Coordinator runs transformations against a store. With DryRun set it
// evaluates everything but never writes.
type Coordinator struct {
	Store  store.Store
	DryRun bool
}

// Commit applies fn to d and writes the result if it changed. The lock is
// checked before fn runs so locked documents cost nothing. A conflict is
// reported, not retried; retry policy belongs to the caller.
func (c *Coordinator) Commit(ctx context.Context, d doc.Document, fn transform.Func) CommitResult {
	result := CommitResult{DocumentID: d.ID}

	if d.AutoEditLock {
		result.Outcome = OutcomeSkippedLocked
		return result
	}

	next, notes, err := apply(d, fn)
	if err != nil {
		result.Outcome = OutcomeError
		result.Err = err
		return result
	}
	result.Notes = notes

	if doc.Equal(d, next) {
		result.Outcome = OutcomeSkippedNoOp
		return result
	}

	if c.DryRun {
		result.Outcome = OutcomeDryRun
		return result
	}

	newRev, err := c.Store.Commit(ctx, d.ID, d.Rev, next)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			result.Outcome = OutcomeConflict
		default:
			result.Outcome = OutcomeError
		}
		result.Err = err
		return result
	}
	result.Outcome = OutcomeCommitted
	result.NewRev = newRev
	return result
}

func apply(d doc.Document, fn transform.Func) (next doc.Document, notes []transform.Note, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transformation panic on %s: %v", d.ID, r)
		}
	}()
	next, notes = fn(d)
	return next, notes, nil
}
