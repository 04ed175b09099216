package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// FileStore persists report artifacts on the filesystem only. It carries no
// relational state: report identity is minted locally and the metadata file
// is the single record of a report's status.
type FileStore struct {
	log             *slog.Logger
	baseDir         string
	defaultEmail    string
	defaultUsername string
}

// NewFileStore creates a file-only artifact store rooted at baseDir.
func NewFileStore(logger *slog.Logger, baseDir, defaultEmail, defaultUsername string) *FileStore {
	return &FileStore{
		log:             logger.With("service", "storage.file"),
		baseDir:         baseDir,
		defaultEmail:    defaultEmail,
		defaultUsername: defaultUsername,
	}
}

// BaseDir returns the artifact root directory.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// Prepare mints a report id, creates its directory and writes the outline
// snapshot plus a running metadata file.
func (s *FileStore) Prepare(ctx context.Context, req GenerateRequest, outline domain.Outline) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email, username := s.identity(req)
	h := NewHandle(s.baseDir, OwnerKey(email), uuid.New())

	if err := os.MkdirAll(h.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	if err := writeOutline(h, outline); err != nil {
		return nil, s.failPrepare(h, err)
	}

	meta := metadata{
		ReportID:    h.ReportID.String(),
		UserEmail:   email,
		Username:    username,
		Topic:       req.Topic,
		ReportTitle: outline.ReportTitle,
		CreatedAt:   time.Now().UTC(),
		Status:      domain.ReportStatusRunning,
	}
	if err := writeMetadata(h, meta); err != nil {
		return nil, s.failPrepare(h, err)
	}

	s.log.InfoContext(ctx, "report prepared",
		"report_id", h.ReportID, "owner_key", h.OwnerKey, "topic", req.Topic)

	return h, nil
}

// Finalize writes the transcript and rewrites metadata to complete.
func (s *FileStore) Finalize(ctx context.Context, h *Handle, transcript string, written []domain.WrittenSection, summary *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeTranscript(h, transcript); err != nil {
		return err
	}

	meta, err := readMetadata(h)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	meta.Status = domain.ReportStatusComplete
	meta.CompletedAt = &now
	meta.Summary = summary
	meta.Sections = written

	if err := writeMetadata(h, meta); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "report finalized", "report_id", h.ReportID, "sections", len(written))

	return nil
}

// Discard removes the report directory. Absence is fine; discard may run
// after a prepare that never got to create anything.
func (s *FileStore) Discard(ctx context.Context, h *Handle) error {
	if err := removeDir(h); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "report discarded", "report_id", h.ReportID)

	return nil
}

func (s *FileStore) identity(req GenerateRequest) (email, username string) {
	email = req.UserEmail
	if email == "" {
		email = s.defaultEmail
	}
	username = req.Username
	if username == "" {
		username = s.defaultUsername
	}
	return email, username
}

// failPrepare cleans up a half-written directory and returns the original
// error. The cleanup failure is only logged; the caller cares about the
// write that failed.
func (s *FileStore) failPrepare(h *Handle, err error) error {
	if rmErr := removeDir(h); rmErr != nil {
		s.log.Error("cleanup after failed prepare", "report_id", h.ReportID, "error", rmErr)
	}
	return err
}

// OwnerKey derives the filesystem segment for an email. Distinct emails can
// in principle slugify to the same key; the key is a path convention, not
// an identity.
func OwnerKey(email string) string {
	if email == "" {
		return DefaultOwnerKey
	}
	return domain.Slugify(email)
}
