// Package collection implements the Collection repository using PostgreSQL.
//
// All scoped reads filter by owner and deleted = false in the SQL itself so
// the active-and-owned rule cannot be forgotten at a call site. GetByName is
// the one deliberate exception: the create path needs to see soft-deleted
// rows to revive them.
package collection

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/explorerhq/explorer-backend/internal/adapter/postgres"
	"github.com/explorerhq/explorer-backend/internal/domain"
)

// Repo provides collection persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new collection repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const collectionColumns = `id, user_id, name, description, color, icon, position, deleted, created_at, updated_at`

const getByIDSQL = `
SELECT ` + collectionColumns + `
FROM collections
WHERE id = $1 AND user_id = $2 AND NOT deleted`

const getByNameSQL = `
SELECT ` + collectionColumns + `
FROM collections
WHERE user_id = $1 AND name = $2
ORDER BY deleted ASC, created_at DESC
LIMIT 1`

const listSQL = `
SELECT ` + collectionColumns + `
FROM collections
WHERE user_id = $1 AND NOT deleted
ORDER BY position ASC, created_at DESC`

const topicCountsSQL = `
SELECT collection_id, count(*)
FROM saved_topics
WHERE user_id = $1 AND NOT deleted AND collection_id IS NOT NULL
GROUP BY collection_id`

const countTopicsSQL = `
SELECT count(*)
FROM saved_topics
WHERE collection_id = $1 AND NOT deleted`

const maxPositionSQL = `
SELECT COALESCE(MAX(position), 0)
FROM collections
WHERE user_id = $1 AND NOT deleted`

const createSQL = `
INSERT INTO collections (id, user_id, name, description, color, icon, position)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + collectionColumns

const reviveSQL = `
UPDATE collections
SET deleted = false, description = $2, color = $3, icon = $4, position = $5, updated_at = now()
WHERE id = $1
RETURNING ` + collectionColumns

const softDeleteSQL = `
UPDATE collections
SET deleted = true, updated_at = now()
WHERE id = $1 AND user_id = $2 AND NOT deleted`

// GetByID returns an active collection owned by userID.
// Returns domain.ErrNotFound if it does not exist, is deleted, or belongs
// to another user.
func (r *Repo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Collection, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCollection(q.QueryRow(ctx, getByIDSQL, id, userID))
	if err != nil {
		return nil, postgres.MapError(err, "collection", id)
	}

	return c, nil
}

// GetByName returns the owner's collection with the given name regardless of
// deletion state, preferring an active row. Used by the create path to
// detect duplicates and to revive soft-deleted rows.
func (r *Repo) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCollection(q.QueryRow(ctx, getByNameSQL, userID, name))
	if err != nil {
		return nil, postgres.MapError(err, "collection", uuid.Nil)
	}

	return c, nil
}

// List returns all active collections for a user ordered by position.
// Returns an empty slice (not nil) when the user has none.
func (r *Repo) List(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	return scanCollections(rows)
}

// TopicCounts returns the number of active topics per collection for a user.
func (r *Repo) TopicCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, topicCountsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("topic counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan topic count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("topic counts: %w", err)
	}

	return counts, nil
}

// CountTopics returns the number of active topics in one collection.
func (r *Repo) CountTopics(ctx context.Context, collectionID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var n int
	if err := q.QueryRow(ctx, countTopicsSQL, collectionID).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "collection", collectionID)
	}

	return n, nil
}

// MaxPosition returns the highest position among the user's active
// collections, or 0 when there are none.
func (r *Repo) MaxPosition(ctx context.Context, userID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var max int
	if err := q.QueryRow(ctx, maxPositionSQL, userID).Scan(&max); err != nil {
		return 0, postgres.MapError(err, "collection", uuid.Nil)
	}

	return max, nil
}

// Create inserts a new collection and returns the persisted row.
func (r *Repo) Create(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	created, err := scanCollection(q.QueryRow(ctx, createSQL,
		c.ID, c.UserID, c.Name, c.Description, c.Color, c.Icon, c.Position))
	if err != nil {
		return nil, postgres.MapError(err, "collection", c.ID)
	}

	return created, nil
}

// Revive clears the deleted flag on a soft-deleted collection, replacing its
// cosmetic fields and moving it to the given position.
func (r *Repo) Revive(ctx context.Context, id uuid.UUID, description, color, icon *string, position int) (*domain.Collection, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCollection(q.QueryRow(ctx, reviveSQL, id, description, color, icon, position))
	if err != nil {
		return nil, postgres.MapError(err, "collection", id)
	}

	return c, nil
}

// Update applies the non-nil fields of params to an active owned collection.
func (r *Repo) Update(ctx context.Context, userID, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error) {
	update := psql.Update("collections").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "user_id": userID, "deleted": false}).
		Suffix("RETURNING " + collectionColumns)

	if params.Name != nil {
		update = update.Set("name", *params.Name)
	}
	if params.Description != nil {
		update = update.Set("description", *params.Description)
	}
	if params.Color != nil {
		update = update.Set("color", *params.Color)
	}
	if params.Icon != nil {
		update = update.Set("icon", *params.Icon)
	}
	if params.Position != nil {
		update = update.Set("position", *params.Position)
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCollection(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "collection", id)
	}

	return c, nil
}

// SoftDelete marks an active owned collection deleted.
// Returns domain.ErrNotFound when no row matched.
func (r *Repo) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, softDeleteSQL, id, userID)
	if err != nil {
		return postgres.MapError(err, "collection", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanCollection(row pgx.Row) (*domain.Collection, error) {
	var c domain.Collection
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Color, &c.Icon,
		&c.Position, &c.Deleted, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	return &c, nil
}

func scanCollections(rows pgx.Rows) ([]*domain.Collection, error) {
	result := make([]*domain.Collection, 0)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return result, nil
}
