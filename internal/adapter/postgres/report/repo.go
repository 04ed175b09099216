// Package report implements the Report repository using PostgreSQL.
//
// The lifecycle methods come in scoped and unscoped flavors on purpose:
// Get and List serve the read API and filter by owner and deleted = false,
// while GetAny and Delete serve finalize/discard, which address a row the
// caller already created and must reach it regardless of scope.
package report

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

// Repo provides report persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new report repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const reportColumns = `id, user_id, topic_id, status, outline_snapshot, sections, summary, content_uri, deleted, started_at, completed_at, created_at, updated_at`

const getSQL = `
SELECT ` + reportColumns + `
FROM reports
WHERE id = $1 AND user_id = $2 AND NOT deleted`

const getAnySQL = `
SELECT ` + reportColumns + `
FROM reports
WHERE id = $1`

const createSQL = `
INSERT INTO reports (id, user_id, topic_id, status, outline_snapshot, started_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + reportColumns

const finalizeSQL = `
UPDATE reports
SET status = $2, sections = $3, summary = $4, content_uri = $5, completed_at = $6, updated_at = now()
WHERE id = $1
RETURNING ` + reportColumns

const softDeleteSQL = `
UPDATE reports
SET deleted = true, updated_at = now()
WHERE id = $1 AND user_id = $2 AND NOT deleted`

const softDeleteByTopicSQL = `
UPDATE reports
SET deleted = true, updated_at = now()
WHERE topic_id = $1 AND NOT deleted`

const deleteSQL = `
DELETE FROM reports
WHERE id = $1`

// Get returns an active report owned by userID.
func (r *Repo) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Report, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rep, err := scanReport(q.QueryRow(ctx, getSQL, id, userID))
	if err != nil {
		return nil, postgres.MapError(err, "report", id)
	}

	return rep, nil
}

// GetAny returns a report by id with no owner or deletion scoping.
// Finalize and discard address rows their own prepare step created, so the
// usual scoping does not apply.
func (r *Repo) GetAny(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rep, err := scanReport(q.QueryRow(ctx, getAnySQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "report", id)
	}

	return rep, nil
}

// List returns the user's active reports, newest first, optionally narrowed
// by status and topic.
func (r *Repo) List(ctx context.Context, userID uuid.UUID, filter domain.ReportListFilter) ([]*domain.Report, error) {
	query := psql.Select(reportColumns).
		From("reports").
		Where(sq.Eq{"user_id": userID, "deleted": false}).
		OrderBy("started_at DESC")

	if filter.Status != nil {
		query = query.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.TopicID != nil {
		query = query.Where(sq.Eq{"topic_id": *filter.TopicID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// Create inserts the prepare-phase row. Status is taken from rep, which the
// caller sets to running; sections stays empty until finalize.
func (r *Repo) Create(ctx context.Context, rep *domain.Report) (*domain.Report, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	created, err := scanReport(q.QueryRow(ctx, createSQL,
		rep.ID, rep.UserID, rep.TopicID, rep.Status, rep.OutlineSnapshot, rep.StartedAt))
	if err != nil {
		return nil, postgres.MapError(err, "report", rep.ID)
	}

	return created, nil
}

// Finalize promotes a report to its terminal state, writing the sections
// payload, summary, content URI and completion time. It returns the updated
// row, or domain.ErrNotFound when the row no longer exists, which the
// lifecycle treats as a no-op.
func (r *Repo) Finalize(ctx context.Context, rep *domain.Report) (*domain.Report, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	updated, err := scanReport(q.QueryRow(ctx, finalizeSQL,
		rep.ID, rep.Status, rep.Sections, rep.Summary, rep.ContentURI, rep.CompletedAt))
	if err != nil {
		return nil, postgres.MapError(err, "report", rep.ID)
	}

	return updated, nil
}

// SoftDelete marks an active owned report deleted.
// Returns domain.ErrNotFound when no row matched.
func (r *Repo) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, softDeleteSQL, id, userID)
	if err != nil {
		return postgres.MapError(err, "report", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SoftDeleteByTopic marks every active report of a topic deleted and
// returns how many rows changed. Zero is not an error.
func (r *Repo) SoftDeleteByTopic(ctx context.Context, topicID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, softDeleteByTopicSQL, topicID)
	if err != nil {
		return 0, postgres.MapError(err, "report", uuid.Nil)
	}

	return tag.RowsAffected(), nil
}

// Delete removes a report row outright. Used by discard; missing rows are
// fine, discard is idempotent.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, deleteSQL, id); err != nil {
		return postgres.MapError(err, "report", id)
	}

	return nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var rep domain.Report
	err := row.Scan(&rep.ID, &rep.UserID, &rep.TopicID, &rep.Status,
		&rep.OutlineSnapshot, &rep.Sections, &rep.Summary, &rep.ContentURI,
		&rep.Deleted, &rep.StartedAt, &rep.CompletedAt, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return &rep, nil
}

func scanReports(rows pgx.Rows) ([]*domain.Report, error) {
	result := make([]*domain.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return result, nil
}
