package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

func snapshotDoc(rev, title string) doc.Document {
	return doc.Document{
		ID:    "post_snap1",
		Rev:   rev,
		Type:  "post",
		Title: title,
		Body: []doc.Node{
			{
				Type:     doc.BlockType,
				Key:      "blk1",
				Style:    "normal",
				Children: []doc.Span{{Key: "sp1", Text: title}},
			},
		},
	}
}

func TestSaveAndHistory(t *testing.T) {
	svc := New(t.TempDir())

	first, err := svc.Save(snapshotDoc("rev-1", "First Title"), "batch-runner", "before href repair")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first.Hash == "" {
		t.Fatal("expected commit hash")
	}

	second, err := svc.Save(snapshotDoc("rev-2", "Second Title"), "batch-runner", "before key backfill")
	if err != nil {
		t.Fatalf("Save() second error = %v", err)
	}
	if second.Hash == first.Hash {
		t.Fatal("changed document should produce a new commit")
	}

	history, err := svc.History("post_snap1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Hash != second.Hash {
		t.Errorf("newest commit first, got %s want %s", history[0].Hash, second.Hash)
	}
	if history[0].Author != "batch-runner" {
		t.Errorf("author = %q", history[0].Author)
	}
}

func TestSaveUnchangedIsNoOp(t *testing.T) {
	svc := New(t.TempDir())

	d := snapshotDoc("rev-1", "Stable Title")
	first, err := svc.Save(d, "batch-runner", "initial")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, err := svc.Save(d, "batch-runner", "repeat")
	if err != nil {
		t.Fatalf("Save() repeat error = %v", err)
	}
	if again.Hash != first.Hash {
		t.Errorf("unchanged save should keep head %s, got %s", first.Hash, again.Hash)
	}

	history, err := svc.History("post_snap1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
}

func TestGetByHashRestoresDocument(t *testing.T) {
	svc := New(t.TempDir())

	original := snapshotDoc("rev-1", "夜勤のコツ")
	info, err := svc.Save(original, "batch-runner", "baseline")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := svc.Save(snapshotDoc("rev-2", "改稿後のタイトル"), "batch-runner", "rewrite"); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}

	restored, err := svc.GetByHash("post_snap1", info.Hash)
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if restored.Title != "夜勤のコツ" {
		t.Errorf("restored title = %q", restored.Title)
	}
	if restored.Rev != "rev-1" {
		t.Errorf("restored rev = %q", restored.Rev)
	}
	if len(restored.Body) != 1 || restored.Body[0].Children[0].Text != "夜勤のコツ" {
		t.Errorf("restored body mismatch: %+v", restored.Body)
	}
}

func TestRepoCreatedPerDocument(t *testing.T) {
	base := t.TempDir()
	svc := New(base)

	if _, err := svc.Save(snapshotDoc("rev-1", "A"), "batch-runner", "init"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "post_snap1", ".git")); err != nil {
		t.Fatalf("expected git repo directory: %v", err)
	}
}
