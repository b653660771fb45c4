package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
	"github.com/sasayosh1/prorenata-sub004/internal/util"
)

// Postgres persists documents in a single table with the body as JSONB and
// the revision token compared-and-swapped in the commit UPDATE. That one
// statement is the entire optimistic-concurrency story.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) DB() *sql.DB {
	return s.db
}

const docColumns = `id, rev, type, title, slug, excerpt, categories, tags, hidden, auto_edit_lock, body`

func (s *Postgres) FetchByID(ctx context.Context, id string) (doc.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+docColumns+` FROM documents WHERE id=$1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return doc.Document{}, ErrNotFound
	}
	if err != nil {
		return doc.Document{}, fmt.Errorf("fetch document %s: %w", id, err)
	}
	return d, nil
}

func (s *Postgres) FetchByQuery(ctx context.Context, f Filter) ([]doc.Document, error) {
	where := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Type != "" {
		where = append(where, "type = "+arg(f.Type))
	}
	if f.DraftsOnly {
		where = append(where, "id LIKE 'drafts.%'")
	} else if !f.IncludeDrafts {
		where = append(where, "id NOT LIKE 'drafts.%'")
	}
	if f.Locked != nil {
		where = append(where, "auto_edit_lock = "+arg(*f.Locked))
	}
	if f.Hidden != nil {
		where = append(where, "hidden = "+arg(*f.Hidden))
	}
	if f.TitleContains != "" {
		where = append(where, "title LIKE "+arg("%"+f.TitleContains+"%"))
	}
	if f.SlugEquals != "" {
		where = append(where, "slug = "+arg(f.SlugEquals))
	}

	query := `SELECT ` + docColumns + ` FROM documents WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []doc.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Postgres) Commit(ctx context.Context, id, rev string, d doc.Document) (string, error) {
	body, categories, tags, err := encodeFields(d)
	if err != nil {
		return "", err
	}
	newRev := util.NewRev()
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET rev=$1, title=$2, slug=$3, excerpt=$4, categories=$5, tags=$6,
		    hidden=$7, auto_edit_lock=$8, body=$9, updated_at=NOW()
		WHERE id=$10 AND rev=$11
	`, newRev, d.Title, d.Slug, d.Excerpt, categories, tags, d.Hidden, d.AutoEditLock, body, id, rev)
	if err != nil {
		return "", fmt.Errorf("commit document %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("commit document %s: %w", id, err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM documents WHERE id=$1)`, id).Scan(&exists); err != nil {
			return "", fmt.Errorf("commit document %s: %w", id, err)
		}
		if !exists {
			return "", ErrNotFound
		}
		return "", ErrConflict
	}
	return newRev, nil
}

func (s *Postgres) Create(ctx context.Context, d doc.Document) (doc.Document, error) {
	if d.ID == "" {
		d.ID = util.NewID("post")
	}
	d.Rev = util.NewRev()
	body, categories, tags, err := encodeFields(d)
	if err != nil {
		return doc.Document{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, rev, type, title, slug, excerpt, categories, tags, hidden, auto_edit_lock, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, d.ID, d.Rev, d.Type, d.Title, d.Slug, d.Excerpt, categories, tags, d.Hidden, d.AutoEditLock, body)
	if err != nil {
		return doc.Document{}, fmt.Errorf("create document %s: %w", d.ID, err)
	}
	return d, nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeFields(d doc.Document) (body, categories, tags []byte, err error) {
	if body, err = json.Marshal(d.Body); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal body: %w", err)
	}
	if categories, err = json.Marshal(d.Categories); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal categories: %w", err)
	}
	if tags, err = json.Marshal(d.Tags); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	return body, categories, tags, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (doc.Document, error) {
	var d doc.Document
	var body, categories, tags []byte
	err := row.Scan(&d.ID, &d.Rev, &d.Type, &d.Title, &d.Slug, &d.Excerpt,
		&categories, &tags, &d.Hidden, &d.AutoEditLock, &body)
	if err != nil {
		return doc.Document{}, err
	}
	if err := json.Unmarshal(body, &d.Body); err != nil {
		return doc.Document{}, fmt.Errorf("unmarshal body: %w", err)
	}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &d.Categories); err != nil {
			return doc.Document{}, fmt.Errorf("unmarshal categories: %w", err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return doc.Document{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return d, nil
}
