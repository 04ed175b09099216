package collection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type collectionRepoMock struct {
	GetByIDFunc     func(ctx context.Context, userID, id uuid.UUID) (*domain.Collection, error)
	GetByNameFunc   func(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error)
	ListFunc        func(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error)
	TopicCountsFunc func(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	CountTopicsFunc func(ctx context.Context, collectionID uuid.UUID) (int, error)
	MaxPositionFunc func(ctx context.Context, userID uuid.UUID) (int, error)
	CreateFunc      func(ctx context.Context, c *domain.Collection) (*domain.Collection, error)
	UpdateFunc      func(ctx context.Context, userID, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error)
	ReviveFunc      func(ctx context.Context, id uuid.UUID, description, color, icon *string, position int) (*domain.Collection, error)
	SoftDeleteFunc  func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *collectionRepoMock) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Collection, error) {
	return m.GetByIDFunc(ctx, userID, id)
}

func (m *collectionRepoMock) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
	return m.GetByNameFunc(ctx, userID, name)
}

func (m *collectionRepoMock) List(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error) {
	return m.ListFunc(ctx, userID)
}

func (m *collectionRepoMock) TopicCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	return m.TopicCountsFunc(ctx, userID)
}

func (m *collectionRepoMock) CountTopics(ctx context.Context, collectionID uuid.UUID) (int, error) {
	return m.CountTopicsFunc(ctx, collectionID)
}

func (m *collectionRepoMock) MaxPosition(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.MaxPositionFunc(ctx, userID)
}

func (m *collectionRepoMock) Create(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
	return m.CreateFunc(ctx, c)
}

func (m *collectionRepoMock) Update(ctx context.Context, userID, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error) {
	return m.UpdateFunc(ctx, userID, id, params)
}

func (m *collectionRepoMock) Revive(ctx context.Context, id uuid.UUID, description, color, icon *string, position int) (*domain.Collection, error) {
	return m.ReviveFunc(ctx, id, description, color, icon, position)
}

func (m *collectionRepoMock) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	return m.SoftDeleteFunc(ctx, userID, id)
}

type topicRepoMock struct {
	ReassignByCollectionFunc func(ctx context.Context, collectionID uuid.UUID) (int64, error)
}

func (m *topicRepoMock) ReassignByCollection(ctx context.Context, collectionID uuid.UUID) (int64, error) {
	return m.ReassignByCollectionFunc(ctx, collectionID)
}

type txManagerMock struct{}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	svc         *Service
	collections *collectionRepoMock
	topics      *topicRepoMock
	user        domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		user: domain.User{ID: uuid.New(), Email: "alice@example.com"},
		collections: &collectionRepoMock{
			GetByNameFunc: func(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
				return nil, domain.ErrNotFound
			},
			MaxPositionFunc: func(ctx context.Context, userID uuid.UUID) (int, error) {
				return 0, nil
			},
			CreateFunc: func(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
				created := *c
				return &created, nil
			},
		},
		topics: &topicRepoMock{
			ReassignByCollectionFunc: func(ctx context.Context, collectionID uuid.UUID) (int64, error) {
				return 0, nil
			},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(logger, f.collections, f.topics, &txManagerMock{})

	return f
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_AppendsAtEndPosition(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.collections.MaxPositionFunc = func(ctx context.Context, userID uuid.UUID) (int, error) {
		return 4, nil
	}

	got, err := f.svc.Create(context.Background(), &f.user, CreateParams{Name: "  Research  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Name != "Research" {
		t.Errorf("name not trimmed: %q", got.Name)
	}
	if got.Position != 5 {
		t.Errorf("position: got %d, want 5", got.Position)
	}
}

func TestCreate_DuplicateActiveNameIsConflict(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.collections.GetByNameFunc = func(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
		return &domain.Collection{ID: uuid.New(), UserID: userID, Name: name}, nil
	}
	f.collections.CreateFunc = func(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
		t.Fatal("no row may be created on a name conflict")
		return nil, nil
	}

	_, err := f.svc.Create(context.Background(), &f.user, CreateParams{Name: "Research"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestCreate_RevivesSoftDeletedName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	dead := &domain.Collection{ID: uuid.New(), UserID: f.user.ID, Name: "Research", Deleted: true}
	f.collections.GetByNameFunc = func(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
		return dead, nil
	}
	f.collections.MaxPositionFunc = func(ctx context.Context, userID uuid.UUID) (int, error) {
		return 2, nil
	}
	var revivedAt int
	f.collections.ReviveFunc = func(ctx context.Context, id uuid.UUID, description, color, icon *string, position int) (*domain.Collection, error) {
		if id != dead.ID {
			t.Errorf("revive target: got %s, want %s", id, dead.ID)
		}
		revivedAt = position
		c := *dead
		c.Deleted = false
		c.Position = position
		return &c, nil
	}
	f.collections.CreateFunc = func(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
		t.Fatal("revival must reuse the row, not insert")
		return nil, nil
	}

	got, err := f.svc.Create(context.Background(), &f.user, CreateParams{Name: "Research"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Deleted {
		t.Error("collection still deleted after revival")
	}
	if revivedAt != 3 {
		t.Errorf("revived position: got %d, want 3 (end of ordering)", revivedAt)
	}
}

func TestCreate_EmptyName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), &f.user, CreateParams{Name: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_RenameToTakenNameIsConflict(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	id := uuid.New()
	f.collections.GetByNameFunc = func(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
		return &domain.Collection{ID: uuid.New(), UserID: userID, Name: name}, nil
	}

	name := "Taken"
	_, err := f.svc.Update(context.Background(), &f.user, id, domain.CollectionUpdateParams{Name: &name})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestUpdate_RenameToOwnNameAllowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	id := uuid.New()
	f.collections.GetByNameFunc = func(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
		return &domain.Collection{ID: id, UserID: userID, Name: name}, nil
	}
	f.collections.UpdateFunc = func(ctx context.Context, userID, cid uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error) {
		return &domain.Collection{ID: cid, UserID: userID, Name: *params.Name}, nil
	}

	name := "Same Name"
	got, err := f.svc.Update(context.Background(), &f.user, id, domain.CollectionUpdateParams{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != name {
		t.Errorf("name: got %q, want %q", got.Name, name)
	}
}

func TestUpdate_NoNameSkipsUniquenessCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.collections.GetByNameFunc = func(ctx context.Context, userID uuid.UUID, name string) (*domain.Collection, error) {
		t.Fatal("uniqueness check must be skipped without a rename")
		return nil, nil
	}
	f.collections.UpdateFunc = func(ctx context.Context, userID, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error) {
		return &domain.Collection{ID: id, UserID: userID, Color: params.Color}, nil
	}

	color := "#ff0000"
	if _, err := f.svc.Update(context.Background(), &f.user, uuid.New(), domain.CollectionUpdateParams{Color: &color}); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete / List / Get
// ---------------------------------------------------------------------------

func TestDelete_ReassignsTopicsFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	id := uuid.New()
	var order []string
	f.collections.GetByIDFunc = func(ctx context.Context, userID, cid uuid.UUID) (*domain.Collection, error) {
		return &domain.Collection{ID: cid, UserID: userID}, nil
	}
	f.topics.ReassignByCollectionFunc = func(ctx context.Context, collectionID uuid.UUID) (int64, error) {
		order = append(order, "reassign")
		return 3, nil
	}
	f.collections.SoftDeleteFunc = func(ctx context.Context, userID, cid uuid.UUID) error {
		order = append(order, "delete")
		return nil
	}

	if err := f.svc.Delete(context.Background(), &f.user, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(order) != 2 || order[0] != "reassign" || order[1] != "delete" {
		t.Errorf("operation order: %v", order)
	}
}

func TestDelete_MissingCollection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.collections.GetByIDFunc = func(ctx context.Context, userID, id uuid.UUID) (*domain.Collection, error) {
		return nil, domain.ErrNotFound
	}
	f.topics.ReassignByCollectionFunc = func(ctx context.Context, collectionID uuid.UUID) (int64, error) {
		t.Fatal("reassignment must not run for a missing collection")
		return 0, nil
	}

	err := f.svc.Delete(context.Background(), &f.user, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestList_AttachesTopicCounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	colA := &domain.Collection{ID: uuid.New(), UserID: f.user.ID, Name: "A"}
	colB := &domain.Collection{ID: uuid.New(), UserID: f.user.ID, Name: "B"}
	f.collections.ListFunc = func(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error) {
		return []*domain.Collection{colA, colB}, nil
	}
	f.collections.TopicCountsFunc = func(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
		return map[uuid.UUID]int{colA.ID: 4}, nil
	}

	got, err := f.svc.List(context.Background(), &f.user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got[0].TopicCount != 4 {
		t.Errorf("colA count: got %d, want 4", got[0].TopicCount)
	}
	if got[1].TopicCount != 0 {
		t.Errorf("colB count: got %d, want 0", got[1].TopicCount)
	}
}

func TestGet_AttachesTopicCount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	id := uuid.New()
	f.collections.GetByIDFunc = func(ctx context.Context, userID, cid uuid.UUID) (*domain.Collection, error) {
		return &domain.Collection{ID: cid, UserID: userID, Name: "A"}, nil
	}
	f.collections.CountTopicsFunc = func(ctx context.Context, collectionID uuid.UUID) (int, error) {
		return 7, nil
	}

	got, err := f.svc.Get(context.Background(), &f.user, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TopicCount != 7 {
		t.Errorf("count: got %d, want 7", got.TopicCount)
	}
}
