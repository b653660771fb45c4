package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
	"github.com/sasayosh1/prorenata-sub004/internal/store"
	"github.com/sasayosh1/prorenata-sub004/internal/transform"
	"github.com/sasayosh1/prorenata-sub004/internal/validate"
)

// Claimer marks documents as in-flight so concurrent driver runs skip
// each other's work. A nil Claimer means in-process exclusion only.
type Claimer interface {
	Acquire(ctx context.Context, documentID string) (bool, error)
	Release(ctx context.Context, documentID string) error
}

// Snapshotter records document state before an apply run.
type Snapshotter interface {
	Save(d doc.Document, author, message string) error
}

// BatchItem is the per-document record in a batch report.
type BatchItem struct {
	DocumentID string
	Outcome    Outcome
	Findings   []validate.Finding
	Notes      []transform.Note
	Err        error
}

// BatchReport summarizes one batch run.
type BatchReport struct {
	Items []BatchItem
}

// Count returns how many items ended with the given outcome.
func (r BatchReport) Count(o Outcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == o {
			n++
		}
	}
	return n
}

// Runner drives a transformation across many documents with a bounded
// worker pool. One bad document never aborts the batch.
type Runner struct {
	Store       store.Store
	Claimer     Claimer
	Snapshotter Snapshotter
	Workers     int
	DryRun      bool
}

// Run fetches each document, validates it, applies fn and commits. A
// revision conflict is retried exactly once from a fresh fetch. Duplicate
// ids are processed once. Cancellation stops pickup of new documents.
func (r *Runner) Run(ctx context.Context, ids []string, fn transform.Func) BatchReport {
	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	jobs := make(chan string)
	results := make(chan BatchItem, len(unique))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- r.processOne(ctx, id, fn)
			}
		}()
	}

feed:
	for _, id := range unique {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	report := BatchReport{Items: make([]BatchItem, 0, len(unique))}
	byID := make(map[string]BatchItem, len(unique))
	for item := range results {
		byID[item.DocumentID] = item
	}
	for _, id := range unique {
		if item, ok := byID[id]; ok {
			report.Items = append(report.Items, item)
		}
	}
	return report
}

func (r *Runner) processOne(ctx context.Context, id string, fn transform.Func) BatchItem {
	item := BatchItem{DocumentID: id}

	if r.Claimer != nil {
		ok, err := r.Claimer.Acquire(ctx, id)
		if err != nil {
			item.Outcome = OutcomeError
			item.Err = err
			return item
		}
		if !ok {
			item.Outcome = OutcomeSkippedLocked
			log.Printf("coordinator: %s claimed by another driver, skipping", id)
			return item
		}
		defer func() {
			if err := r.Claimer.Release(ctx, id); err != nil {
				log.Printf("coordinator: release claim %s: %v", id, err)
			}
		}()
	}

	attempt := func() BatchItem {
		out := BatchItem{DocumentID: id}
		d, err := r.Store.FetchByID(ctx, id)
		if err != nil {
			out.Outcome = OutcomeError
			out.Err = err
			return out
		}

		report := validate.Check(d)
		out.Findings = report.Findings
		// Findings are surfaced, never a reason to stop: the repair ops
		// exist for documents that have them. Only a document with no id
		// or no body gives the transformation nothing to work on.
		if report.Has(validate.KindFatalInput) {
			out.Outcome = OutcomeError
			out.Err = errors.New("document unusable: " + string(validate.KindFatalInput))
			return out
		}

		if r.Snapshotter != nil && !r.DryRun && !d.AutoEditLock {
			if err := r.Snapshotter.Save(d, "batch-runner", "before automated edit"); err != nil {
				out.Outcome = OutcomeError
				out.Err = err
				return out
			}
		}

		co := Coordinator{Store: r.Store, DryRun: r.DryRun}
		cr := co.Commit(ctx, d, fn)
		out.Outcome = cr.Outcome
		out.Notes = cr.Notes
		out.Err = cr.Err
		return out
	}

	item = attempt()
	if item.Outcome == OutcomeConflict {
		log.Printf("coordinator: %s conflicted, retrying once", id)
		item = attempt()
	}
	return item
}
