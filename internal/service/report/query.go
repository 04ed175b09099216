package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// List returns the user's active reports, newest first, optionally filtered
// by status and topic.
func (s *Service) List(ctx context.Context, user *domain.User, filter domain.ReportListFilter) ([]*domain.Report, error) {
	return s.reports.List(ctx, user.ID, filter)
}

// Get returns one active report owned by the user.
func (s *Service) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Report, error) {
	return s.reports.Get(ctx, user.ID, id)
}

// Delete soft-deletes a report. The artifact files stay on disk; the row is
// the source of truth for visibility.
func (s *Service) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	return s.reports.SoftDelete(ctx, user.ID, id)
}

// LoadContent reads a report's transcript from the artifact store. The
// persisted content URI is relative to the store base; anything escaping it
// is treated as missing.
func (s *Service) LoadContent(ctx context.Context, rep *domain.Report) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("report %s content: storage disabled: %w", rep.ID, domain.ErrNotFound)
	}
	if rep.ContentURI == nil || *rep.ContentURI == "" {
		return "", fmt.Errorf("report %s has no content: %w", rep.ID, domain.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := s.store.BaseDir()
	full := filepath.Join(base, filepath.FromSlash(*rep.ContentURI))
	if !strings.HasPrefix(filepath.Clean(full), filepath.Clean(base)+string(filepath.Separator)) {
		return "", fmt.Errorf("report %s content uri escapes store: %w", rep.ID, domain.ErrNotFound)
	}

	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("report %s content missing on disk: %w", rep.ID, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read report content: %w", err)
	}

	return string(data), nil
}
