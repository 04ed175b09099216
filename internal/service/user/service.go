// Package user resolves report owners. Users are created lazily on first
// reference; there is no signup flow.
package user

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// userRepo defines the user repository interface needed by the user service.
type userRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	UpdateNames(ctx context.Context, id uuid.UUID, username, name string) (*domain.User, error)
}

// Service implements user resolution.
type Service struct {
	log   *slog.Logger
	users userRepo

	// placeholderName is the display name given to users created without a
	// username; it is also the only name a later real username may overwrite.
	placeholderName string
}

// NewService creates a new user service instance.
func NewService(logger *slog.Logger, users userRepo, placeholderName string) *Service {
	return &Service{
		log:             logger.With("service", "user"),
		users:           users,
		placeholderName: placeholderName,
	}
}
