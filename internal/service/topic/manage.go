package topic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// List returns the user's active topics, optionally narrowed to one
// collection. The collection filter is ownership-checked first so that
// filtering by someone else's collection looks identical to filtering by a
// nonexistent one.
func (s *Service) List(ctx context.Context, user *domain.User, collectionID *uuid.UUID) ([]*domain.SavedTopic, error) {
	if err := s.checkCollection(ctx, user.ID, collectionID); err != nil {
		return nil, err
	}

	return s.topics.List(ctx, user.ID, collectionID)
}

// Get returns one active topic owned by the user.
func (s *Service) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.SavedTopic, error) {
	return s.topics.GetByID(ctx, user.ID, id)
}

// Create saves a topic explicitly (the SPA save path), optionally filing it
// into a collection. Resolution is idempotent: saving an already-saved
// title returns the existing row.
//
// A unique violation at insert time aborts the transaction, so the whole
// save is retried in a fresh one: a lost title race re-resolves to the
// winner's row, a lost slug race retries with a randomized slug variant.
// The retry is bounded by slugAttempts; exhaustion surfaces domain.ErrConflict.
func (s *Service) Create(ctx context.Context, user *domain.User, title string, collectionID *uuid.UUID) (*domain.SavedTopic, error) {
	if err := s.checkCollection(ctx, user.ID, collectionID); err != nil {
		return nil, err
	}

	var result *domain.SavedTopic
	slugOverride := ""
	for attempt := 0; ; attempt++ {
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			tp, err := s.ResolveOrCreate(txCtx, user, title, slugOverride)
			if err != nil {
				return err
			}

			if collectionID != nil {
				tp, err = s.topics.SetCollection(txCtx, user.ID, tp.ID, collectionID)
				if err != nil {
					return err
				}
			}

			result = tp
			return nil
		})
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		if attempt+1 >= slugAttempts {
			return nil, fmt.Errorf("save topic %q after %d attempts: %w", title, slugAttempts, domain.ErrConflict)
		}

		if errors.Is(err, domain.ErrSlugTaken) {
			slugOverride = suffixed(domain.Slugify(domain.NormalizeTitle(title)))
		}
		s.log.WarnContext(ctx, "save lost a commit race, retrying",
			"title", title, "attempt", attempt+1, "slug_override", slugOverride)
	}
}

// Move re-files a topic into a collection, or out of all collections when
// collectionID is nil.
func (s *Service) Move(ctx context.Context, user *domain.User, id uuid.UUID, collectionID *uuid.UUID) (*domain.SavedTopic, error) {
	if err := s.checkCollection(ctx, user.ID, collectionID); err != nil {
		return nil, err
	}

	return s.topics.SetCollection(ctx, user.ID, id, collectionID)
}

// Delete soft-deletes a topic and cascades to every active report
// referencing it, in one transaction.
func (s *Service) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.topics.SoftDelete(txCtx, user.ID, id); err != nil {
			return err
		}

		n, err := s.reports.SoftDeleteByTopic(txCtx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			s.log.InfoContext(txCtx, "cascaded report deletion", "topic_id", id, "reports", n)
		}

		return nil
	})
}
