// Package report exposes persisted reports to the read API and drives the
// generation lifecycle against the artifact store.
package report

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
	"github.com/explorerhq/explorer-backend/internal/storage"
)

// reportRepo defines the report repository interface needed by the report service.
type reportRepo interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, userID uuid.UUID, filter domain.ReportListFilter) ([]*domain.Report, error)
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

// Service implements report queries and the generation run.
// A nil store means report persistence is disabled: generation still runs
// and returns its result, but nothing is written anywhere.
type Service struct {
	log     *slog.Logger
	reports reportRepo
	store   storage.Store
}

// NewService creates a new report service instance.
func NewService(logger *slog.Logger, reports reportRepo, store storage.Store) *Service {
	return &Service{
		log:     logger.With("service", "report"),
		reports: reports,
		store:   store,
	}
}
