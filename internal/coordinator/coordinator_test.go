package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
	"github.com/sasayosh1/prorenata-sub004/internal/store"
	"github.com/sasayosh1/prorenata-sub004/internal/transform"
)

type fakeStore struct {
	fetchByIDFn    func(ctx context.Context, id string) (doc.Document, error)
	fetchByQueryFn func(ctx context.Context, f store.Filter) ([]doc.Document, error)
	commitFn       func(ctx context.Context, id, rev string, d doc.Document) (string, error)
	createFn       func(ctx context.Context, d doc.Document) (doc.Document, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (s *fakeStore) FetchByID(ctx context.Context, id string) (doc.Document, error) {
	return s.fetchByIDFn(ctx, id)
}

func (s *fakeStore) FetchByQuery(ctx context.Context, f store.Filter) ([]doc.Document, error) {
	if s.fetchByQueryFn == nil {
		return nil, nil
	}
	return s.fetchByQueryFn(ctx, f)
}

func (s *fakeStore) Commit(ctx context.Context, id, rev string, d doc.Document) (string, error) {
	return s.commitFn(ctx, id, rev, d)
}

func (s *fakeStore) Create(ctx context.Context, d doc.Document) (doc.Document, error) {
	if s.createFn == nil {
		return d, nil
	}
	return s.createFn(ctx, d)
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}

func baseDoc() doc.Document {
	return doc.Document{
		ID:    "post_c1",
		Rev:   "rev-1",
		Type:  "post",
		Title: "Original",
		Body: []doc.Node{
			{
				Type:     doc.BlockType,
				Key:      "blk1",
				Style:    "normal",
				Children: []doc.Span{{Key: "sp1", Text: "Original text"}},
			},
		},
	}
}

func retitle(title string) transform.Func {
	return func(d doc.Document) (doc.Document, []transform.Note) {
		out := d.Clone()
		out.Title = title
		return out, []transform.Note{{Op: "retitle", Changed: true}}
	}
}

func identity() transform.Func {
	return func(d doc.Document) (doc.Document, []transform.Note) {
		return d.Clone(), []transform.Note{{Op: "noop", Changed: false}}
	}
}

func TestCommitWritesChangedDocument(t *testing.T) {
	committed := false
	st := &fakeStore{
		commitFn: func(ctx context.Context, id, rev string, d doc.Document) (string, error) {
			committed = true
			if rev != "rev-1" {
				t.Errorf("commit used rev %q, want rev-1", rev)
			}
			if d.Title != "Changed" {
				t.Errorf("committed title %q, want Changed", d.Title)
			}
			return "rev-2", nil
		},
	}
	co := Coordinator{Store: st}
	result := co.Commit(context.Background(), baseDoc(), retitle("Changed"))
	if result.Outcome != OutcomeCommitted {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeCommitted)
	}
	if result.NewRev != "rev-2" {
		t.Errorf("new rev = %q", result.NewRev)
	}
	if !committed {
		t.Error("store.Commit never called")
	}
}

func TestCommitSkipsLockedWithoutApplying(t *testing.T) {
	applied := false
	st := &fakeStore{
		commitFn: func(ctx context.Context, id, rev string, d doc.Document) (string, error) {
			t.Error("store.Commit called for a locked document")
			return "", nil
		},
	}
	co := Coordinator{Store: st}
	locked := baseDoc()
	locked.AutoEditLock = true
	result := co.Commit(context.Background(), locked, func(d doc.Document) (doc.Document, []transform.Note) {
		applied = true
		return d, nil
	})
	if result.Outcome != OutcomeSkippedLocked {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeSkippedLocked)
	}
	if applied {
		t.Error("transformation ran despite the lock")
	}
}

func TestCommitSkipsNoChange(t *testing.T) {
	st := &fakeStore{
		commitFn: func(ctx context.Context, id, rev string, d doc.Document) (string, error) {
			t.Error("store.Commit called for an unchanged document")
			return "", nil
		},
	}
	co := Coordinator{Store: st}
	result := co.Commit(context.Background(), baseDoc(), identity())
	if result.Outcome != OutcomeSkippedNoOp {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeSkippedNoOp)
	}
}

func TestCommitDryRunNeverWrites(t *testing.T) {
	st := &fakeStore{
		commitFn: func(ctx context.Context, id, rev string, d doc.Document) (string, error) {
			t.Error("store.Commit called in dry-run mode")
			return "", nil
		},
	}
	co := Coordinator{Store: st, DryRun: true}
	result := co.Commit(context.Background(), baseDoc(), retitle("Changed"))
	if result.Outcome != OutcomeDryRun {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeDryRun)
	}
	if len(result.Notes) != 1 || result.Notes[0].Op != "retitle" {
		t.Errorf("dry-run should still carry notes, got %+v", result.Notes)
	}
}

func TestCommitReportsConflict(t *testing.T) {
	st := &fakeStore{
		commitFn: func(ctx context.Context, id, rev string, d doc.Document) (string, error) {
			return "", store.ErrConflict
		},
	}
	co := Coordinator{Store: st}
	result := co.Commit(context.Background(), baseDoc(), retitle("Changed"))
	if result.Outcome != OutcomeConflict {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeConflict)
	}
	if !errors.Is(result.Err, store.ErrConflict) {
		t.Errorf("err = %v", result.Err)
	}
}

func TestCommitDoesNotMutateInput(t *testing.T) {
	st := &fakeStore{
		commitFn: func(ctx context.Context, id, rev string, d doc.Document) (string, error) {
			return "rev-2", nil
		},
	}
	input := baseDoc()
	co := Coordinator{Store: st}
	co.Commit(context.Background(), input, retitle("Changed"))
	if input.Title != "Original" {
		t.Errorf("input document mutated: title = %q", input.Title)
	}
}
