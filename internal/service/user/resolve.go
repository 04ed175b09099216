package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// ResolveOrCreate returns the user for email, creating one when none exists.
//
// A provided username upgrades an existing user's placeholder display name,
// and only a placeholder: a real name chosen earlier is never overwritten.
// Email handling is trim-only; the address is an exact key.
//
// Losing a creation race surfaces domain.ErrAlreadyExists. The row exists at
// that point, but the unique violation has aborted any surrounding
// transaction, so callers resolve again outside of it instead of relying on
// a re-read here.
func (s *Service) ResolveOrCreate(ctx context.Context, email, username string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "must not be empty")
	}
	username = strings.TrimSpace(username)

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if username != "" && username != u.Name && domain.IsPlaceholderName(u.Name, []string{s.placeholderName}) {
			s.log.InfoContext(ctx, "replacing placeholder name", "user_id", u.ID, "username", username)
			return s.users.UpdateNames(ctx, u.ID, username, username)
		}
		return u, nil

	case errors.Is(err, domain.ErrNotFound):
		name := username
		if name == "" {
			name = s.placeholderName
		}
		created, err := s.users.Create(ctx, &domain.User{
			ID:       uuid.New(),
			Email:    email,
			Username: username,
			Name:     name,
		})
		if err != nil {
			// Includes ErrAlreadyExists from a lost creation race. A re-read
			// would run on the aborted transaction, so the sentinel goes to
			// the caller instead.
			return nil, err
		}

		s.log.InfoContext(ctx, "user created", "user_id", created.ID, "email", email)
		return created, nil

	default:
		return nil, err
	}
}

// FindByEmail returns the user for email without any creation side effect.
// Read-only listings use this so that merely asking about an unknown email
// does not mint a user row.
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "must not be empty")
	}

	return s.users.GetByEmail(ctx, email)
}
