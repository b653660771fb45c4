package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxDocuments = "prorenata_documents"

// Meili implements Searcher via Meilisearch and accepts index pushes.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the document index.
// The caller should proceed with the local ranker when the instance is
// unreachable; the background loop picks it up if it comes back.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}
	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxDocuments,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxDocuments, err)
	}
	index := m.client.Index(idxDocuments)
	searchable := []string{"title", "excerpt", "categories", "tags", "bodyText"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxDocuments, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Healthy reports the last observed health state.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Search executes a query against the document index.
func (m *Meili) Search(q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	resp, err := m.client.Index(idxDocuments).Search(q.Text, &meili.SearchRequest{
		Limit:                 int64(limit),
		AttributesToHighlight: []string{"bodyText"},
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch query: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		results = append(results, Result{
			ID:      rec.ID,
			Title:   rec.Title,
			Slug:    rec.Slug,
			Snippet: Snippet(rec.BodyText, q.Text),
		})
	}
	return results, nil
}

// IndexDocuments pushes records into the index in one batch.
func (m *Meili) IndexDocuments(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := m.client.Index(idxDocuments).AddDocuments(records, nil); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	return nil
}

// DeleteDocument removes one record from the index.
func (m *Meili) DeleteDocument(id string) error {
	if _, err := m.client.Index(idxDocuments).DeleteDocument(id, nil); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}
