// Package topic implements the SavedTopic repository using PostgreSQL.
package topic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/explorerhq/explorer-backend/internal/adapter/postgres"
	"github.com/explorerhq/explorer-backend/internal/domain"
)

// Repo provides saved-topic persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new topic repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const topicColumns = `id, user_id, collection_id, title, slug, deleted, created_at, updated_at`

const getByIDSQL = `
SELECT ` + topicColumns + `
FROM saved_topics
WHERE id = $1 AND user_id = $2 AND NOT deleted`

const getByTitleSQL = `
SELECT ` + topicColumns + `
FROM saved_topics
WHERE user_id = $1 AND title = $2`

const getBySlugSQL = `
SELECT ` + topicColumns + `
FROM saved_topics
WHERE slug = $1`

const listSQL = `
SELECT ` + topicColumns + `
FROM saved_topics
WHERE user_id = $1 AND NOT deleted
ORDER BY created_at DESC`

const listByCollectionSQL = `
SELECT ` + topicColumns + `
FROM saved_topics
WHERE user_id = $1 AND collection_id = $2 AND NOT deleted
ORDER BY created_at DESC`

const createSQL = `
INSERT INTO saved_topics (id, user_id, collection_id, title, slug)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + topicColumns

const reactivateSQL = `
UPDATE saved_topics
SET deleted = false, slug = $2, collection_id = $3, updated_at = now()
WHERE id = $1
RETURNING ` + topicColumns

const setCollectionSQL = `
UPDATE saved_topics
SET collection_id = $3, updated_at = now()
WHERE id = $1 AND user_id = $2 AND NOT deleted
RETURNING ` + topicColumns

const reassignByCollectionSQL = `
UPDATE saved_topics
SET collection_id = NULL, updated_at = now()
WHERE collection_id = $1 AND NOT deleted`

const softDeleteSQL = `
UPDATE saved_topics
SET deleted = true, updated_at = now()
WHERE id = $1 AND user_id = $2 AND NOT deleted`

// GetByID returns an active topic owned by userID.
func (r *Repo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.SavedTopic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTopic(q.QueryRow(ctx, getByIDSQL, id, userID))
	if err != nil {
		return nil, postgres.MapError(err, "topic", id)
	}

	return t, nil
}

// GetByTitle returns the owner's topic with an exact title match regardless
// of deletion state. Title matching wins over slug matching during
// resolution, and deleted rows must be found so they can be reactivated.
func (r *Repo) GetByTitle(ctx context.Context, userID uuid.UUID, title string) (*domain.SavedTopic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTopic(q.QueryRow(ctx, getByTitleSQL, userID, title))
	if err != nil {
		return nil, postgres.MapError(err, "topic", uuid.Nil)
	}

	return t, nil
}

// GetBySlug returns the topic holding a slug, whoever owns it and whatever
// its deletion state. Slugs are globally unique, so at most one row matches.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (*domain.SavedTopic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTopic(q.QueryRow(ctx, getBySlugSQL, slug))
	if err != nil {
		return nil, postgres.MapError(err, "topic", uuid.Nil)
	}

	return t, nil
}

// List returns the user's active topics, newest first. When collectionID is
// non-nil only topics in that collection are returned.
func (r *Repo) List(ctx context.Context, userID uuid.UUID, collectionID *uuid.UUID) ([]*domain.SavedTopic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		rows pgx.Rows
		err  error
	)
	if collectionID != nil {
		rows, err = q.Query(ctx, listByCollectionSQL, userID, *collectionID)
	} else {
		rows, err = q.Query(ctx, listSQL, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	return scanTopics(rows)
}

// Create inserts a new saved topic. A slug collision surfaces as
// domain.ErrSlugTaken so the caller can retry with a different slug.
func (r *Repo) Create(ctx context.Context, t *domain.SavedTopic) (*domain.SavedTopic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	created, err := scanTopic(q.QueryRow(ctx, createSQL,
		t.ID, t.UserID, t.CollectionID, t.Title, t.Slug))
	if err != nil {
		return nil, postgres.MapError(err, "topic", t.ID)
	}

	return created, nil
}

// Reactivate clears the deleted flag on a topic, replacing its slug and
// collection assignment. A slug collision surfaces as domain.ErrSlugTaken.
func (r *Repo) Reactivate(ctx context.Context, id uuid.UUID, slug string, collectionID *uuid.UUID) (*domain.SavedTopic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTopic(q.QueryRow(ctx, reactivateSQL, id, slug, collectionID))
	if err != nil {
		return nil, postgres.MapError(err, "topic", id)
	}

	return t, nil
}

// SetCollection moves an active owned topic into a collection, or out of all
// collections when collectionID is nil.
func (r *Repo) SetCollection(ctx context.Context, userID, id uuid.UUID, collectionID *uuid.UUID) (*domain.SavedTopic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTopic(q.QueryRow(ctx, setCollectionSQL, id, userID, collectionID))
	if err != nil {
		return nil, postgres.MapError(err, "topic", id)
	}

	return t, nil
}

// ReassignByCollection detaches every active topic from a collection.
// Used when the collection itself is deleted; the topics survive unfiled.
func (r *Repo) ReassignByCollection(ctx context.Context, collectionID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, reassignByCollectionSQL, collectionID)
	if err != nil {
		return 0, postgres.MapError(err, "topic", uuid.Nil)
	}

	return tag.RowsAffected(), nil
}

// SoftDelete marks an active owned topic deleted.
// Returns domain.ErrNotFound when no row matched.
func (r *Repo) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, softDeleteSQL, id, userID)
	if err != nil {
		return postgres.MapError(err, "topic", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanTopic(row pgx.Row) (*domain.SavedTopic, error) {
	var t domain.SavedTopic
	err := row.Scan(&t.ID, &t.UserID, &t.CollectionID, &t.Title, &t.Slug,
		&t.Deleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &t, nil
}

func scanTopics(rows pgx.Rows) ([]*domain.SavedTopic, error) {
	result := make([]*domain.SavedTopic, 0)
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return result, nil
}
