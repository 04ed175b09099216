package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// prepareAttempts bounds how often a whole prepare is retried when its
// transaction loses a unique-constraint race to a concurrent request.
const prepareAttempts = 3

type userResolver interface {
	ResolveOrCreate(ctx context.Context, email, username string) (*domain.User, error)
}

type topicResolver interface {
	ResolveOrCreate(ctx context.Context, user *domain.User, title, slugOverride string) (*domain.SavedTopic, error)
}

type reportRepo interface {
	Create(ctx context.Context, rep *domain.Report) (*domain.Report, error)
	Finalize(ctx context.Context, rep *domain.Report) (*domain.Report, error)
	GetAny(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DualStore persists reports in PostgreSQL and mirrors their artifacts on
// the filesystem. The row is the source of truth for status and ownership;
// the files are the source of truth for content bytes.
//
// Transactions never span file I/O: prepare commits the row first and
// writes files after, so a visible RUNNING row always has at least its
// directory, and a failed file write discards both.
type DualStore struct {
	log             *slog.Logger
	users           userResolver
	topics          topicResolver
	reports         reportRepo
	tx              txManager
	baseDir         string
	defaultEmail    string
	defaultUsername string
}

// NewDualStore creates the dual-backed artifact store.
func NewDualStore(
	logger *slog.Logger,
	users userResolver,
	topics topicResolver,
	reports reportRepo,
	tx txManager,
	baseDir, defaultEmail, defaultUsername string,
) *DualStore {
	return &DualStore{
		log:             logger.With("service", "storage.dual"),
		users:           users,
		topics:          topics,
		reports:         reports,
		tx:              tx,
		baseDir:         baseDir,
		defaultEmail:    defaultEmail,
		defaultUsername: defaultUsername,
	}
}

// BaseDir returns the artifact root directory.
func (s *DualStore) BaseDir() string {
	return s.baseDir
}

// Prepare resolves the requesting user and topic, inserts the RUNNING
// report row in one transaction, then writes the outline snapshot and
// running metadata.
//
// A unique violation inside the transaction (a slug race, or a concurrent
// first contact creating the same user) aborts it, so the whole prepare
// restarts in a fresh transaction, carrying a randomized slug when the slug
// itself was contended. Retries are bounded by prepareAttempts; exhaustion
// surfaces as domain.ErrConflict. Any file-write failure discards the
// partial report.
func (s *DualStore) Prepare(ctx context.Context, req GenerateRequest, outline domain.Outline) (*Handle, error) {
	email := req.UserEmail
	if email == "" {
		email = s.defaultEmail
	}
	username := req.Username
	if username == "" {
		username = s.defaultUsername
	}

	var (
		usr *domain.User
		rep *domain.Report
	)

	slugOverride := ""
	for attempt := 0; ; attempt++ {
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			u, err := s.users.ResolveOrCreate(txCtx, email, username)
			if err != nil {
				return err
			}

			tp, err := s.topics.ResolveOrCreate(txCtx, u, req.Topic, slugOverride)
			if err != nil {
				return err
			}

			r := &domain.Report{
				ID:              uuid.New(),
				UserID:          u.ID,
				TopicID:         tp.ID,
				Status:          domain.ReportStatusRunning,
				OutlineSnapshot: outline,
				StartedAt:       time.Now().UTC(),
			}
			created, err := s.reports.Create(txCtx, r)
			if err != nil {
				return err
			}

			usr, rep = u, created
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		if attempt+1 >= prepareAttempts {
			return nil, fmt.Errorf("prepare report after %d attempts: %w", prepareAttempts, domain.ErrConflict)
		}

		if errors.Is(err, domain.ErrSlugTaken) {
			slugOverride = slugVariant(req.Topic)
		}
		s.log.WarnContext(ctx, "prepare lost a commit race, retrying",
			"topic", req.Topic, "attempt", attempt+1, "slug_override", slugOverride)
	}

	h := NewHandle(s.baseDir, usr.ID.String(), rep.ID)

	if err := s.writePrepareArtifacts(h, req, outline, email, username, rep.StartedAt); err != nil {
		s.discardQuietly(ctx, h)
		return nil, err
	}

	s.log.InfoContext(ctx, "report prepared",
		"report_id", rep.ID, "user_id", usr.ID, "topic_id", rep.TopicID)

	return h, nil
}

// Finalize writes the transcript, patches metadata and promotes the row to
// COMPLETE. A row that disappeared (or was soft-deleted) since prepare makes
// the whole call a no-op: finalize never resurrects a deleted report.
func (s *DualStore) Finalize(ctx context.Context, h *Handle, transcript string, written []domain.WrittenSection, summary *string) error {
	row, err := s.reports.GetAny(ctx, h.ReportID)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.WarnContext(ctx, "finalize skipped, report row gone", "report_id", h.ReportID)
		return nil
	}
	if err != nil {
		return err
	}
	if row.Deleted {
		s.log.WarnContext(ctx, "finalize skipped, report deleted", "report_id", h.ReportID)
		return nil
	}

	if err := writeTranscript(h, transcript); err != nil {
		return err
	}
	if err := s.patchMetadataComplete(h, written, summary); err != nil {
		return err
	}

	now := time.Now().UTC()
	contentURI := h.ContentURI()

	updated := *row
	updated.Status = domain.ReportStatusComplete
	updated.Sections = domain.SectionsPayload{Outline: row.OutlineSnapshot, Written: written}
	updated.Summary = summary
	updated.ContentURI = &contentURI
	updated.CompletedAt = &now

	_, err = s.reports.Finalize(ctx, &updated)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.WarnContext(ctx, "finalize raced with delete", "report_id", h.ReportID)
		return nil
	}
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "report finalized", "report_id", h.ReportID, "sections", len(written))

	return nil
}

// Discard removes the artifact directory and hard-deletes the row.
// Both halves tolerate absence, so discard can run repeatedly and against
// any intermediate prepare state.
func (s *DualStore) Discard(ctx context.Context, h *Handle) error {
	if err := removeDir(h); err != nil {
		return err
	}

	if err := s.reports.Delete(ctx, h.ReportID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	s.log.InfoContext(ctx, "report discarded", "report_id", h.ReportID)

	return nil
}

func (s *DualStore) writePrepareArtifacts(h *Handle, req GenerateRequest, outline domain.Outline, email, username string, startedAt time.Time) error {
	if err := os.MkdirAll(h.Dir, dirPerm); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	if err := writeOutline(h, outline); err != nil {
		return err
	}

	return writeMetadata(h, metadata{
		ReportID:    h.ReportID.String(),
		UserEmail:   email,
		Username:    username,
		Topic:       req.Topic,
		ReportTitle: outline.ReportTitle,
		CreatedAt:   startedAt,
		Status:      domain.ReportStatusRunning,
	})
}

func (s *DualStore) patchMetadataComplete(h *Handle, written []domain.WrittenSection, summary *string) error {
	meta, err := readMetadata(h)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	meta.Status = domain.ReportStatusComplete
	meta.CompletedAt = &now
	meta.Summary = summary
	meta.Sections = written

	return writeMetadata(h, meta)
}

// discardQuietly undoes a prepare whose file writes failed. Unlike Discard,
// the two halves run independently: a directory that cannot be removed must
// not leave the orphaned RUNNING row behind.
func (s *DualStore) discardQuietly(ctx context.Context, h *Handle) {
	if err := removeDir(h); err != nil {
		s.log.ErrorContext(ctx, "remove dir after failed prepare", "report_id", h.ReportID, "error", err)
	}
	if err := s.reports.Delete(ctx, h.ReportID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.ErrorContext(ctx, "delete row after failed prepare", "report_id", h.ReportID, "error", err)
	}
}

func slugVariant(topic string) string {
	return domain.Slugify(domain.NormalizeTitle(topic)) + "-" + uuid.New().String()[:8]
}
