package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// CreateParams carries the user-settable fields of a new collection.
type CreateParams struct {
	Name        string
	Description *string
	Color       *string
	Icon        *string
}

// List returns the user's active collections in display order, each with
// its active topic count.
func (s *Service) List(ctx context.Context, user *domain.User) ([]*domain.Collection, error) {
	cols, err := s.collections.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	counts, err := s.collections.TopicCounts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		c.TopicCount = counts[c.ID]
	}

	return cols, nil
}

// Get returns one active collection owned by the user, with its topic count.
func (s *Service) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Collection, error) {
	c, err := s.collections.GetByID(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}

	n, err := s.collections.CountTopics(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.TopicCount = n

	return c, nil
}

// Create adds a collection at the end of the user's ordering. An active
// collection with the same name is a conflict; a soft-deleted one is
// revived in place of a new row, taking the new cosmetic fields.
func (s *Service) Create(ctx context.Context, user *domain.User, params CreateParams) (*domain.Collection, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	var result *domain.Collection
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.collections.GetByName(txCtx, user.ID, name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err == nil && !existing.Deleted {
			return fmt.Errorf("collection %q: %w", name, domain.ErrConflict)
		}

		maxPos, err := s.collections.MaxPosition(txCtx, user.ID)
		if err != nil {
			return err
		}
		position := maxPos + 1

		if existing != nil && existing.Deleted {
			s.log.InfoContext(txCtx, "reviving collection", "collection_id", existing.ID, "name", name)
			result, err = s.collections.Revive(txCtx, existing.ID, params.Description, params.Color, params.Icon, position)
			return err
		}

		result, err = s.collections.Create(txCtx, &domain.Collection{
			ID:          uuid.New(),
			UserID:      user.ID,
			Name:        name,
			Description: params.Description,
			Color:       params.Color,
			Icon:        params.Icon,
			Position:    position,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Update applies the non-nil fields of params. A rename into a name held by
// another active collection is a conflict.
func (s *Service) Update(ctx context.Context, user *domain.User, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error) {
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "must not be empty")
		}
		params.Name = &name

		other, err := s.collections.GetByName(ctx, user.ID, name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if err == nil && !other.Deleted && other.ID != id {
			return nil, fmt.Errorf("collection %q: %w", name, domain.ErrConflict)
		}
	}

	return s.collections.Update(ctx, user.ID, id, params)
}

// Delete soft-deletes a collection. Its topics survive: they are reassigned
// to the null collection (uncategorized) in the same transaction.
func (s *Service) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.collections.GetByID(txCtx, user.ID, id); err != nil {
			return err
		}

		n, err := s.topics.ReassignByCollection(txCtx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			s.log.InfoContext(txCtx, "reassigned topics to uncategorized", "collection_id", id, "topics", n)
		}

		return s.collections.SoftDelete(txCtx, user.ID, id)
	})
}
