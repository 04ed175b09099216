// Package topic manages saved topics: idempotent resolution by title, the
// global slug claim loop, and collection membership.
package topic

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// slugAttempts bounds the slug probe loop. Exhausting it means the topic
// namespace is pathologically contended; the caller gets a conflict.
const slugAttempts = 3

// topicRepo defines the topic repository interface needed by the topic service.
type topicRepo interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.SavedTopic, error)
	GetByTitle(ctx context.Context, userID uuid.UUID, title string) (*domain.SavedTopic, error)
	GetBySlug(ctx context.Context, slug string) (*domain.SavedTopic, error)
	List(ctx context.Context, userID uuid.UUID, collectionID *uuid.UUID) ([]*domain.SavedTopic, error)
	Create(ctx context.Context, t *domain.SavedTopic) (*domain.SavedTopic, error)
	Reactivate(ctx context.Context, id uuid.UUID, slug string, collectionID *uuid.UUID) (*domain.SavedTopic, error)
	SetCollection(ctx context.Context, userID, id uuid.UUID, collectionID *uuid.UUID) (*domain.SavedTopic, error)
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

// collectionRepo defines the collection lookups needed for ownership checks.
type collectionRepo interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Collection, error)
}

// reportRepo defines the report cascade needed by topic deletion.
type reportRepo interface {
	SoftDeleteByTopic(ctx context.Context, topicID uuid.UUID) (int64, error)
}

// txManager defines the transaction manager interface needed by the topic service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements saved-topic operations.
type Service struct {
	log         *slog.Logger
	topics      topicRepo
	collections collectionRepo
	reports     reportRepo
	tx          txManager
}

// NewService creates a new topic service instance.
func NewService(
	logger *slog.Logger,
	topics topicRepo,
	collections collectionRepo,
	reports reportRepo,
	tx txManager,
) *Service {
	return &Service{
		log:         logger.With("service", "topic"),
		topics:      topics,
		collections: collections,
		reports:     reports,
		tx:          tx,
	}
}

// checkCollection verifies that collectionID names an active collection
// owned by userID. Cross-owner and deleted collections both come back as
// domain.ErrNotFound; existence under wrong ownership is never revealed.
func (s *Service) checkCollection(ctx context.Context, userID uuid.UUID, collectionID *uuid.UUID) error {
	if collectionID == nil {
		return nil
	}
	_, err := s.collections.GetByID(ctx, userID, *collectionID)
	return err
}
