package topic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// ResolveOrCreate finds or creates the user's topic for a title.
//
// A title match always wins, regardless of slug: an active row is returned
// as-is and a soft-deleted one is reactivated with its old slug. Only when
// no title match exists is a slug claimed, probing the global namespace:
//
//   - slug free: claim it with a new row
//   - slug held by this user: that row is the intended target, return it
//     (reactivated if needed) even when its title differs; this absorbs
//     races where two requests normalize to the same slug
//   - slug held by another user: retry with a randomized suffix
//
// The probe is bounded by slugAttempts; exhaustion surfaces domain.ErrConflict.
// slugOverride replaces the title-derived candidate when non-empty.
//
// Losing the insert itself to a concurrent claim surfaces domain.ErrSlugTaken
// untouched: the unique violation aborts the surrounding transaction, so no
// recovery can happen here and the caller restarts in a fresh transaction.
func (s *Service) ResolveOrCreate(ctx context.Context, user *domain.User, title, slugOverride string) (*domain.SavedTopic, error) {
	title = domain.NormalizeTitle(title)
	if title == "" {
		return nil, domain.NewValidationError("title", "must not be empty")
	}

	existing, err := s.topics.GetByTitle(ctx, user.ID, title)
	switch {
	case err == nil:
		if !existing.Deleted {
			return existing, nil
		}
		s.log.InfoContext(ctx, "reactivating topic", "topic_id", existing.ID, "title", title)
		return s.topics.Reactivate(ctx, existing.ID, existing.Slug, existing.CollectionID)

	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	candidate := slugOverride
	if candidate == "" {
		candidate = domain.Slugify(title)
	}
	base := candidate

	for attempt := 0; attempt < slugAttempts; attempt++ {
		holder, err := s.topics.GetBySlug(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			created, err := s.topics.Create(ctx, &domain.SavedTopic{
				ID:     uuid.New(),
				UserID: user.ID,
				Title:  title,
				Slug:   candidate,
			})
			if err != nil {
				// Includes ErrSlugTaken from a lost insert race. The
				// violation has aborted the transaction; every later
				// statement in it would fail, so the caller must retry
				// in a new one.
				return nil, err
			}

			s.log.InfoContext(ctx, "topic created", "topic_id", created.ID, "slug", created.Slug)
			return created, nil
		}
		if err != nil {
			return nil, err
		}

		if holder.UserID == user.ID {
			if !holder.Deleted {
				return holder, nil
			}
			s.log.InfoContext(ctx, "reactivating topic via slug", "topic_id", holder.ID, "slug", candidate)
			return s.topics.Reactivate(ctx, holder.ID, holder.Slug, holder.CollectionID)
		}

		candidate = suffixed(base)
	}

	return nil, fmt.Errorf("slug %q contended after %d attempts: %w", base, slugAttempts, domain.ErrConflict)
}

func suffixed(base string) string {
	return base + "-" + uuid.New().String()[:8]
}
