package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
	"github.com/explorerhq/explorer-backend/internal/service/collection"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type userServiceMock struct {
	ResolveOrCreateFunc func(ctx context.Context, email, username string) (*domain.User, error)
	FindByEmailFunc     func(ctx context.Context, email string) (*domain.User, error)
}

func (m *userServiceMock) ResolveOrCreate(ctx context.Context, email, username string) (*domain.User, error) {
	return m.ResolveOrCreateFunc(ctx, email, username)
}

func (m *userServiceMock) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.FindByEmailFunc(ctx, email)
}

type collectionServiceMock struct {
	ListFunc   func(ctx context.Context, user *domain.User) ([]*domain.Collection, error)
	GetFunc    func(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Collection, error)
	CreateFunc func(ctx context.Context, user *domain.User, params collection.CreateParams) (*domain.Collection, error)
	UpdateFunc func(ctx context.Context, user *domain.User, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error)
	DeleteFunc func(ctx context.Context, user *domain.User, id uuid.UUID) error
}

func (m *collectionServiceMock) List(ctx context.Context, user *domain.User) ([]*domain.Collection, error) {
	return m.ListFunc(ctx, user)
}

func (m *collectionServiceMock) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Collection, error) {
	return m.GetFunc(ctx, user, id)
}

func (m *collectionServiceMock) Create(ctx context.Context, user *domain.User, params collection.CreateParams) (*domain.Collection, error) {
	return m.CreateFunc(ctx, user, params)
}

func (m *collectionServiceMock) Update(ctx context.Context, user *domain.User, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error) {
	return m.UpdateFunc(ctx, user, id, params)
}

func (m *collectionServiceMock) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	return m.DeleteFunc(ctx, user, id)
}

type topicServiceMock struct {
	ListFunc   func(ctx context.Context, user *domain.User, collectionID *uuid.UUID) ([]*domain.SavedTopic, error)
	GetFunc    func(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.SavedTopic, error)
	CreateFunc func(ctx context.Context, user *domain.User, title string, collectionID *uuid.UUID) (*domain.SavedTopic, error)
	MoveFunc   func(ctx context.Context, user *domain.User, id uuid.UUID, collectionID *uuid.UUID) (*domain.SavedTopic, error)
	DeleteFunc func(ctx context.Context, user *domain.User, id uuid.UUID) error
}

func (m *topicServiceMock) List(ctx context.Context, user *domain.User, collectionID *uuid.UUID) ([]*domain.SavedTopic, error) {
	return m.ListFunc(ctx, user, collectionID)
}

func (m *topicServiceMock) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.SavedTopic, error) {
	return m.GetFunc(ctx, user, id)
}

func (m *topicServiceMock) Create(ctx context.Context, user *domain.User, title string, collectionID *uuid.UUID) (*domain.SavedTopic, error) {
	return m.CreateFunc(ctx, user, title, collectionID)
}

func (m *topicServiceMock) Move(ctx context.Context, user *domain.User, id uuid.UUID, collectionID *uuid.UUID) (*domain.SavedTopic, error) {
	return m.MoveFunc(ctx, user, id, collectionID)
}

func (m *topicServiceMock) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	return m.DeleteFunc(ctx, user, id)
}

type reportServiceMock struct {
	ListFunc        func(ctx context.Context, user *domain.User, filter domain.ReportListFilter) ([]*domain.Report, error)
	GetFunc         func(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Report, error)
	DeleteFunc      func(ctx context.Context, user *domain.User, id uuid.UUID) error
	LoadContentFunc func(ctx context.Context, rep *domain.Report) (string, error)
}

func (m *reportServiceMock) List(ctx context.Context, user *domain.User, filter domain.ReportListFilter) ([]*domain.Report, error) {
	return m.ListFunc(ctx, user, filter)
}

func (m *reportServiceMock) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Report, error) {
	return m.GetFunc(ctx, user, id)
}

func (m *reportServiceMock) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	return m.DeleteFunc(ctx, user, id)
}

func (m *reportServiceMock) LoadContent(ctx context.Context, rep *domain.Report) (string, error) {
	return m.LoadContentFunc(ctx, rep)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

const (
	testDefaultEmail    = "system@explorer.local"
	testDefaultUsername = "Explorer System"
)

type routerFixture struct {
	users       *userServiceMock
	collections *collectionServiceMock
	topics      *topicServiceMock
	reports     *reportServiceMock
	user        *domain.User
}

func newRouterFixture() *routerFixture {
	user := &domain.User{ID: uuid.New(), Email: "alice@example.com", Username: "alice", Name: "Alice"}
	return &routerFixture{
		users: &userServiceMock{
			ResolveOrCreateFunc: func(ctx context.Context, email, username string) (*domain.User, error) {
				return user, nil
			},
			FindByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return user, nil
			},
		},
		collections: &collectionServiceMock{},
		topics:      &topicServiceMock{},
		reports:     &reportServiceMock{},
		user:        user,
	}
}

func (f *routerFixture) router() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ident := NewIdentity(f.users, testDefaultEmail, testDefaultUsername)

	return NewRouter(
		NewHealthHandler(&dbPingerMock{}, "test"),
		NewCollectionHandler(f.collections, ident, logger),
		NewTopicHandler(f.topics, ident, logger),
		NewReportHandler(f.reports, ident, logger),
	)
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d", want, got)
	}
}
