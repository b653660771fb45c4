package search

import (
	"context"
	"testing"

	"github.com/sasayosh1/prorenata-sub004/internal/store"
)

func TestServiceFallsBackToLocalRanker(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed(
		rankedDoc("post_a", "夜勤のコツ", "夜勤を乗り切る準備", "仮眠と巡回の段取りについて。"),
		rankedDoc("post_b", "日勤の申し送り", "", "日中の業務の流れ。"),
	)
	svc := NewService(nil, mem)

	resp := svc.Search(context.Background(), Query{Text: "夜勤", Limit: 10})
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].ID != "post_a" {
		t.Errorf("hit = %s, want post_a", resp.Results[0].ID)
	}
	if resp.Query != "夜勤" {
		t.Errorf("echoed query = %q", resp.Query)
	}
}

func TestServiceAppliesLimit(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed(
		rankedDoc("post_a", "Transfer One", "", ""),
		rankedDoc("post_b", "Transfer Two", "", ""),
		rankedDoc("post_c", "Transfer Three", "", ""),
	)
	svc := NewService(nil, mem)

	resp := svc.Search(context.Background(), Query{Text: "transfer", Limit: 2})
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
}

func TestServiceNoHitsReturnsEmptySlice(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed(rankedDoc("post_a", "Unrelated", "", "budget review"))
	svc := NewService(nil, mem)

	resp := svc.Search(context.Background(), Query{Text: "zzz", Limit: 10})
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("results = %#v, want empty slice", resp.Results)
	}
}

type fakeBackend struct {
	healthy bool
	indexed [][]Record
	deleted []string
	results []Result
	err     error
}

func (b *fakeBackend) Search(q Query) ([]Result, error) { return b.results, b.err }
func (b *fakeBackend) Healthy() bool                    { return b.healthy }

func (b *fakeBackend) IndexDocuments(records []Record) error {
	b.indexed = append(b.indexed, records)
	return b.err
}

func (b *fakeBackend) DeleteDocument(id string) error {
	b.deleted = append(b.deleted, id)
	return b.err
}

func TestReindexAllPushesCorpus(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed(
		rankedDoc("post_a", "タイトルA", "", "本文A"),
		rankedDoc("post_b", "タイトルB", "", "本文B"),
	)
	be := &fakeBackend{healthy: true}
	svc := &Service{meili: be, store: mem}

	if err := svc.ReindexAll(context.Background()); err != nil {
		t.Fatalf("ReindexAll() error = %v", err)
	}
	if len(be.indexed) != 1 {
		t.Fatalf("index batches = %d, want 1", len(be.indexed))
	}
	if len(be.indexed[0]) != 2 {
		t.Fatalf("records = %d, want 2", len(be.indexed[0]))
	}
	if be.indexed[0][0].BodyText != "本文A" {
		t.Errorf("record body = %q", be.indexed[0][0].BodyText)
	}
}

func TestReindexAllRefusesUnhealthyBackend(t *testing.T) {
	svc := &Service{meili: &fakeBackend{healthy: false}, store: store.NewMemory()}
	if err := svc.ReindexAll(context.Background()); err == nil {
		t.Fatal("expected error for unhealthy backend")
	}
}

func TestSearchPrefersHealthyBackend(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed(rankedDoc("post_local", "Local Hit", "", "ranker only"))
	be := &fakeBackend{
		healthy: true,
		results: []Result{{ID: "post_indexed", Title: "Indexed Hit"}},
	}
	svc := &Service{meili: be, store: mem}

	resp := svc.Search(context.Background(), Query{Text: "hit", Limit: 10})
	if len(resp.Results) != 1 || resp.Results[0].ID != "post_indexed" {
		t.Fatalf("results = %+v, want the backend hit", resp.Results)
	}
}

func TestToRecordFlattensBody(t *testing.T) {
	d := rankedDoc("post_a", "Title", "Excerpt", "Body text here")
	d.Categories = []string{"career"}
	d.Tags = []string{"night-shift"}

	rec := ToRecord(d)
	if rec.ID != "post_a" || rec.Title != "Title" {
		t.Errorf("record identity mismatch: %+v", rec)
	}
	if rec.BodyText != "Body text here" {
		t.Errorf("bodyText = %q", rec.BodyText)
	}
	if len(rec.Categories) != 1 || rec.Categories[0] != "career" {
		t.Errorf("categories = %v", rec.Categories)
	}
}
