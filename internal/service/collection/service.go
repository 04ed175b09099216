// Package collection manages topic collections: ordered, per-user folders
// that saved topics can be filed into.
package collection

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// collectionRepo defines the collection repository interface needed by the
// collection service.
type collectionRepo interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Collection, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error)
	TopicCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	CountTopics(ctx context.Context, collectionID uuid.UUID) (int, error)
	MaxPosition(ctx context.Context, userID uuid.UUID) (int, error)
	Create(ctx context.Context, c *domain.Collection) (*domain.Collection, error)
	Update(ctx context.Context, userID, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error)
	Revive(ctx context.Context, id uuid.UUID, description, color, icon *string, position int) (*domain.Collection, error)
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

// topicRepo defines the topic reassignment needed by collection deletion.
type topicRepo interface {
	ReassignByCollection(ctx context.Context, collectionID uuid.UUID) (int64, error)
}

// txManager defines the transaction manager interface needed by the
// collection service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements collection operations.
type Service struct {
	log         *slog.Logger
	collections collectionRepo
	topics      topicRepo
	tx          txManager
}

// NewService creates a new collection service instance.
func NewService(
	logger *slog.Logger,
	collections collectionRepo,
	topics topicRepo,
	tx txManager,
) *Service {
	return &Service{
		log:         logger.With("service", "collection"),
		collections: collections,
		topics:      topics,
		tx:          tx,
	}
}
