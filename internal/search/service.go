package search

import (
	"context"
	"fmt"
	"log"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
	"github.com/sasayosh1/prorenata-sub004/internal/store"
)

// backend is the indexing side of the facade, satisfied by Meili.
type backend interface {
	Search(q Query) ([]Result, error)
	Healthy() bool
	IndexDocuments(records []Record) error
	DeleteDocument(id string) error
}

// Service is the facade that tries Meilisearch first and falls back to the
// local ranker over the store's corpus.
type Service struct {
	meili backend
	store store.Store
}

// NewService creates a search service. meili may be nil when Meilisearch
// is not configured; every query then uses the local ranker.
func NewService(meili *Meili, st store.Store) *Service {
	s := &Service{store: st}
	if meili != nil {
		s.meili = meili
	}
	return s
}

// Search tries Meilisearch if healthy, otherwise ranks locally.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to local ranker: %v", err)
	}

	corpus, err := s.store.FetchByQuery(ctx, store.Filter{Type: "post"})
	if err != nil {
		log.Printf("search: corpus fetch failed: %v", err)
		return Response{Results: []Result{}, Query: q.Text}
	}
	ranked := Rank(corpus, q.Text)
	if q.Limit > 0 && len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	results := make([]Result, 0, len(ranked))
	for _, d := range ranked {
		results = append(results, Result{
			ID:      d.ID,
			Title:   d.Title,
			Slug:    d.Slug,
			Snippet: Snippet(doc.PlainText(d.Body), q.Text),
		})
	}
	return Response{Results: results, Query: q.Text}
}

// IndexDocument pushes one document into Meilisearch, fire-and-forget.
func (s *Service) IndexDocument(d doc.Document) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexDocuments([]Record{ToRecord(d)}); err != nil {
			log.Printf("search: index document %s: %v", d.ID, err)
		}
	}()
}

// DeleteDocument removes one document from the index, fire-and-forget.
func (s *Service) DeleteDocument(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteDocument(id); err != nil {
			log.Printf("search: delete document %s: %v", id, err)
		}
	}()
}

// ReindexAll reads the whole corpus from the store and pushes it to
// Meilisearch in one batch.
func (s *Service) ReindexAll(ctx context.Context) error {
	if s.meili == nil {
		return fmt.Errorf("no search backend configured")
	}
	if !s.meili.Healthy() {
		return fmt.Errorf("search backend unhealthy")
	}
	corpus, err := s.store.FetchByQuery(ctx, store.Filter{Type: "post", IncludeDrafts: true})
	if err != nil {
		return fmt.Errorf("reindex corpus load: %w", err)
	}
	records := make([]Record, 0, len(corpus))
	for _, d := range corpus {
		records = append(records, ToRecord(d))
	}
	if err := s.meili.IndexDocuments(records); err != nil {
		return fmt.Errorf("reindex push: %w", err)
	}
	log.Printf("search: reindexed %d documents", len(records))
	return nil
}

// ToRecord flattens a document into its indexable form.
func ToRecord(d doc.Document) Record {
	return Record{
		ID:         d.ID,
		Title:      d.Title,
		Excerpt:    d.Excerpt,
		Slug:       d.Slug,
		Categories: d.Categories,
		Tags:       d.Tags,
		BodyText:   doc.PlainText(d.Body),
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
