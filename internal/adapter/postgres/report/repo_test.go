package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explorerhq/explorer-backend/internal/adapter/postgres/report"
	"github.com/explorerhq/explorer-backend/internal/adapter/postgres/testhelper"
	"github.com/explorerhq/explorer-backend/internal/domain"
)

func newRepo(t *testing.T) (*report.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return report.New(pool), pool
}

func seedOwnerAndTopic(t *testing.T, pool *pgxpool.Pool) (domain.User, domain.SavedTopic) {
	t.Helper()
	u := testhelper.SeedUser(t, pool)
	tp := testhelper.SeedTopic(t, pool, u.ID, nil)
	return u, tp
}

func TestRepo_Create_RunningRow(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	rep := domain.Report{
		ID:      uuid.New(),
		UserID:  u.ID,
		TopicID: tp.ID,
		Status:  domain.ReportStatusRunning,
		OutlineSnapshot: domain.Outline{
			ReportTitle: "Quantum Computing",
			Sections:    []domain.OutlineSection{{Title: "Basics"}},
		},
		StartedAt: now,
	}

	got, err := repo.Create(ctx, &rep)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if got.Status != domain.ReportStatusRunning {
		t.Errorf("Status: got %s, want running", got.Status)
	}
	if got.OutlineSnapshot.ReportTitle != "Quantum Computing" {
		t.Errorf("OutlineSnapshot.ReportTitle: got %q", got.OutlineSnapshot.ReportTitle)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt: got %v, want nil", got.CompletedAt)
	}
	if got.Summary != nil || got.ContentURI != nil {
		t.Errorf("Summary/ContentURI should be empty before finalize: %v %v", got.Summary, got.ContentURI)
	}
}

func TestRepo_Create_BadStatus(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)

	rep := domain.Report{
		ID:        uuid.New(),
		UserID:    u.ID,
		TopicID:   tp.ID,
		Status:    domain.ReportStatus("exploded"),
		StartedAt: time.Now().UTC(),
	}
	_, err := repo.Create(ctx, &rep)
	assertIsDomainError(t, err, domain.ErrValidation)
}

func TestRepo_Create_MissingTopic(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u := testhelper.SeedUser(t, pool)

	rep := domain.Report{
		ID:        uuid.New(),
		UserID:    u.ID,
		TopicID:   uuid.New(),
		Status:    domain.ReportStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := repo.Create(ctx, &rep)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_Finalize(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)
	rep := testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusRunning)

	summary := "Two sections about things."
	contentURI := u.ID.String() + "/" + rep.ID.String() + "/report.md"
	completed := time.Now().UTC().Truncate(time.Microsecond)

	rep.Status = domain.ReportStatusComplete
	rep.Summary = &summary
	rep.ContentURI = &contentURI
	rep.CompletedAt = &completed
	rep.Sections = domain.SectionsPayload{
		Outline: rep.OutlineSnapshot,
		Written: []domain.WrittenSection{{Title: "Introduction", Content: "text"}},
	}

	got, err := repo.Finalize(ctx, &rep)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got.Status != domain.ReportStatusComplete {
		t.Errorf("Status: got %s, want complete", got.Status)
	}
	if got.Summary == nil || *got.Summary != summary {
		t.Errorf("Summary: got %v, want %q", got.Summary, summary)
	}
	if got.ContentURI == nil || *got.ContentURI != contentURI {
		t.Errorf("ContentURI: got %v, want %q", got.ContentURI, contentURI)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("CompletedAt: got %v, want %v", got.CompletedAt, completed)
	}
	if len(got.Sections.Written) != 1 {
		t.Errorf("Sections.Written: got %d entries, want 1", len(got.Sections.Written))
	}
}

func TestRepo_Finalize_MissingRow(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	rep := domain.Report{
		ID:     uuid.New(),
		Status: domain.ReportStatusComplete,
	}
	_, err := repo.Finalize(ctx, &rep)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_Get_ScopedToOwner(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)
	stranger := testhelper.SeedUser(t, pool)
	rep := testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusComplete)

	got, err := repo.Get(ctx, u.ID, rep.ID)
	if err != nil {
		t.Fatalf("Get as owner: %v", err)
	}
	if got.ID != rep.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, rep.ID)
	}

	_, err = repo.Get(ctx, stranger.ID, rep.ID)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_GetAny_SeesSoftDeleted(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)
	rep := testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusRunning)

	if err := repo.SoftDelete(ctx, u.ID, rep.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	_, err := repo.Get(ctx, u.ID, rep.ID)
	assertIsDomainError(t, err, domain.ErrNotFound)

	got, err := repo.GetAny(ctx, rep.ID)
	if err != nil {
		t.Fatalf("GetAny: %v", err)
	}
	if !got.Deleted {
		t.Error("expected deleted row with Deleted set")
	}
}

func TestRepo_List_Filters(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)
	otherTopic := testhelper.SeedTopic(t, pool, u.ID, nil)
	running := testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusRunning)
	testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusComplete)
	onOther := testhelper.SeedReport(t, pool, u.ID, otherTopic.ID, domain.ReportStatusComplete)

	all, err := repo.List(ctx, u.ID, domain.ReportListFilter{})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List all: got %d reports, want 3", len(all))
	}

	statusComplete := domain.ReportStatusComplete
	byStatus, err := repo.List(ctx, u.ID, domain.ReportListFilter{Status: &statusComplete})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if len(byStatus) != 2 {
		t.Fatalf("List by status: got %d reports, want 2", len(byStatus))
	}
	for _, rep := range byStatus {
		if rep.ID == running.ID {
			t.Error("running report leaked into complete-only listing")
		}
	}

	byTopic, err := repo.List(ctx, u.ID, domain.ReportListFilter{TopicID: &otherTopic.ID})
	if err != nil {
		t.Fatalf("List by topic: %v", err)
	}
	if len(byTopic) != 1 || byTopic[0].ID != onOther.ID {
		t.Fatalf("List by topic: got %d reports, want only %s", len(byTopic), onOther.ID)
	}
}

func TestRepo_SoftDeleteByTopic(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)
	testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusComplete)
	testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusComplete)

	n, err := repo.SoftDeleteByTopic(ctx, tp.ID)
	if err != nil {
		t.Fatalf("SoftDeleteByTopic: %v", err)
	}
	if n != 2 {
		t.Errorf("rows affected: got %d, want 2", n)
	}

	// Zero matches is fine on repeat.
	n, err = repo.SoftDeleteByTopic(ctx, tp.ID)
	if err != nil {
		t.Fatalf("SoftDeleteByTopic repeat: %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected on repeat: got %d, want 0", n)
	}
}

func TestRepo_Delete_Idempotent(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	u, tp := seedOwnerAndTopic(t, pool)
	rep := testhelper.SeedReport(t, pool, u.ID, tp.ID, domain.ReportStatusRunning)

	if err := repo.Delete(ctx, rep.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, rep.ID); err != nil {
		t.Fatalf("Delete repeat: %v", err)
	}

	_, err := repo.GetAny(ctx, rep.ID)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func assertIsDomainError(t *testing.T, err error, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error wrapping %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got: %v", target, err)
	}
}
