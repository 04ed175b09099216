package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// userService resolves request identity from the email scoping params.
type userService interface {
	ResolveOrCreate(ctx context.Context, email, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Identity derives the acting user from the user_email and username query
// parameters, falling back to the configured default identity when absent.
type Identity struct {
	users           userService
	defaultEmail    string
	defaultUsername string
}

// NewIdentity creates an Identity resolver.
func NewIdentity(users userService, defaultEmail, defaultUsername string) *Identity {
	return &Identity{
		users:           users,
		defaultEmail:    defaultEmail,
		defaultUsername: defaultUsername,
	}
}

func (i *Identity) params(r *http.Request) (email, username string) {
	q := r.URL.Query()
	email = q.Get("user_email")
	username = q.Get("username")
	if email == "" {
		email = i.defaultEmail
		if username == "" {
			username = i.defaultUsername
		}
	}
	return email, username
}

// Acting resolves the user for a mutating request, creating the row on first
// contact. Two simultaneous first contacts race on the insert; the loser
// resolves again, which now finds the winner's row.
func (i *Identity) Acting(r *http.Request) (*domain.User, error) {
	email, username := i.params(r)

	u, err := i.users.ResolveOrCreate(r.Context(), email, username)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return i.users.ResolveOrCreate(r.Context(), email, username)
	}
	return u, err
}

// Viewer resolves the user for a read-only request. An unknown email returns
// domain.ErrNotFound; read paths must not create users as a side effect.
func (i *Identity) Viewer(r *http.Request) (*domain.User, error) {
	email, _ := i.params(r)
	return i.users.FindByEmail(r.Context(), email)
}
