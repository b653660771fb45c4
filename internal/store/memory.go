package store

import (
	"context"
	"sort"
	"sync"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
	"github.com/sasayosh1/prorenata-sub004/internal/util"
)

// Memory is an in-process Store used by tests and dry-run rehearsal.
// It enforces the same revision-guard semantics as the Postgres backend.
type Memory struct {
	mu   sync.Mutex
	docs map[string]doc.Document
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]doc.Document)}
}

// Seed inserts documents directly, assigning revisions. Test helper.
func (s *Memory) Seed(docs ...doc.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if d.Rev == "" {
			d.Rev = util.NewRev()
		}
		s.docs[d.ID] = d.Clone()
	}
}

func (s *Memory) FetchByID(_ context.Context, id string) (doc.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return doc.Document{}, ErrNotFound
	}
	return d.Clone(), nil
}

func (s *Memory) FetchByQuery(_ context.Context, f Filter) ([]doc.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []doc.Document
	for _, d := range s.docs {
		if f.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) Commit(_ context.Context, id, rev string, d doc.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[id]
	if !ok {
		return "", ErrNotFound
	}
	if current.Rev != rev {
		return "", ErrConflict
	}
	d.ID = id
	d.Rev = util.NewRev()
	s.docs[id] = d.Clone()
	return d.Rev, nil
}

func (s *Memory) Create(_ context.Context, d doc.Document) (doc.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = util.NewID("post")
	}
	d.Rev = util.NewRev()
	s.docs[d.ID] = d.Clone()
	return d, nil
}

func (s *Memory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}
