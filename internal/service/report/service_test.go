package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
	"github.com/explorerhq/explorer-backend/internal/storage"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type reportRepoMock struct {
	GetFunc        func(ctx context.Context, userID, id uuid.UUID) (*domain.Report, error)
	ListFunc       func(ctx context.Context, userID uuid.UUID, filter domain.ReportListFilter) ([]*domain.Report, error)
	SoftDeleteFunc func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *reportRepoMock) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Report, error) {
	return m.GetFunc(ctx, userID, id)
}

func (m *reportRepoMock) List(ctx context.Context, userID uuid.UUID, filter domain.ReportListFilter) ([]*domain.Report, error) {
	return m.ListFunc(ctx, userID, filter)
}

func (m *reportRepoMock) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	return m.SoftDeleteFunc(ctx, userID, id)
}

type storeMock struct {
	PrepareFunc  func(ctx context.Context, req storage.GenerateRequest, outline domain.Outline) (*storage.Handle, error)
	FinalizeFunc func(ctx context.Context, h *storage.Handle, transcript string, written []domain.WrittenSection, summary *string) error
	DiscardFunc  func(ctx context.Context, h *storage.Handle) error
	BaseDirFunc  func() string
}

func (m *storeMock) Prepare(ctx context.Context, req storage.GenerateRequest, outline domain.Outline) (*storage.Handle, error) {
	return m.PrepareFunc(ctx, req, outline)
}

func (m *storeMock) Finalize(ctx context.Context, h *storage.Handle, transcript string, written []domain.WrittenSection, summary *string) error {
	return m.FinalizeFunc(ctx, h, transcript, written, summary)
}

func (m *storeMock) Discard(ctx context.Context, h *storage.Handle) error {
	return m.DiscardFunc(ctx, h)
}

func (m *storeMock) BaseDir() string {
	return m.BaseDirFunc()
}

// sliceGenerator yields canned sections, then io.EOF.
type sliceGenerator struct {
	sections []domain.WrittenSection
	failAt   int
	err      error
	pos      int
}

func (g *sliceGenerator) Next(ctx context.Context) (domain.WrittenSection, error) {
	if g.err != nil && g.pos == g.failAt {
		return domain.WrittenSection{}, g.err
	}
	if g.pos >= len(g.sections) {
		return domain.WrittenSection{}, io.EOF
	}
	sec := g.sections[g.pos]
	g.pos++
	return sec, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func workingStore(t *testing.T) (*storeMock, *storage.Handle) {
	t.Helper()

	h := storage.NewHandle(t.TempDir(), "owner", uuid.New())
	store := &storeMock{
		PrepareFunc: func(ctx context.Context, req storage.GenerateRequest, outline domain.Outline) (*storage.Handle, error) {
			return h, nil
		},
		FinalizeFunc: func(ctx context.Context, h *storage.Handle, transcript string, written []domain.WrittenSection, summary *string) error {
			return nil
		},
		DiscardFunc: func(ctx context.Context, h *storage.Handle) error {
			return nil
		},
		BaseDirFunc: func() string { return filepath.Dir(filepath.Dir(h.Dir)) },
	}
	return store, h
}

func testOutline() domain.Outline {
	return domain.Outline{
		ReportTitle: "AI Safety",
		Sections:    []domain.OutlineSection{{Title: "Intro"}, {Title: "Risks"}},
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_HappyPath(t *testing.T) {
	t.Parallel()

	store, h := workingStore(t)
	var finalTranscript string
	var finalSummary *string
	store.FinalizeFunc = func(ctx context.Context, got *storage.Handle, transcript string, written []domain.WrittenSection, summary *string) error {
		if got != h {
			t.Errorf("finalize handle mismatch")
		}
		finalTranscript = transcript
		finalSummary = summary
		return nil
	}

	gen := &sliceGenerator{sections: []domain.WrittenSection{
		{Title: "Intro", Content: "Opening words."},
		{Title: "Risks", Content: "Risk words."},
	}}

	svc := NewService(testLogger(), &reportRepoMock{}, store)
	res, err := svc.Run(context.Background(), storage.GenerateRequest{Topic: "AI Safety"}, testOutline(), gen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Handle != h {
		t.Error("result handle mismatch")
	}
	if len(res.Sections) != 2 {
		t.Fatalf("sections: got %d, want 2", len(res.Sections))
	}
	if !strings.HasPrefix(finalTranscript, "# AI Safety\n\n## Intro\n\nOpening words.") {
		t.Errorf("transcript layout:\n%s", finalTranscript)
	}
	if finalSummary == nil || *finalSummary != "Opening words." {
		t.Errorf("summary: got %v", finalSummary)
	}
	if !strings.HasSuffix(res.Transcript, "\n") {
		t.Error("result transcript not newline-terminated")
	}
}

func TestRun_GeneratorFailureDiscards(t *testing.T) {
	t.Parallel()

	store, h := workingStore(t)
	boom := errors.New("engine exploded")
	var discarded *storage.Handle
	store.DiscardFunc = func(ctx context.Context, got *storage.Handle) error {
		discarded = got
		return nil
	}
	store.FinalizeFunc = func(ctx context.Context, h *storage.Handle, transcript string, written []domain.WrittenSection, summary *string) error {
		t.Fatal("finalize must not run after a generator failure")
		return nil
	}

	gen := &sliceGenerator{
		sections: []domain.WrittenSection{{Title: "Intro", Content: "ok"}},
		failAt:   1,
		err:      boom,
	}

	svc := NewService(testLogger(), &reportRepoMock{}, store)
	_, err := svc.Run(context.Background(), storage.GenerateRequest{Topic: "X"}, testOutline(), gen)
	if !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got: %v", err)
	}
	if discarded != h {
		t.Error("prepared report not discarded")
	}
}

func TestRun_FinalizeFailureDiscards(t *testing.T) {
	t.Parallel()

	store, h := workingStore(t)
	var discarded *storage.Handle
	store.FinalizeFunc = func(ctx context.Context, h *storage.Handle, transcript string, written []domain.WrittenSection, summary *string) error {
		return errors.New("disk full")
	}
	store.DiscardFunc = func(ctx context.Context, got *storage.Handle) error {
		discarded = got
		return nil
	}

	gen := &sliceGenerator{sections: []domain.WrittenSection{{Title: "Intro", Content: "ok"}}}

	svc := NewService(testLogger(), &reportRepoMock{}, store)
	_, err := svc.Run(context.Background(), storage.GenerateRequest{Topic: "X"}, testOutline(), gen)
	if err == nil {
		t.Fatal("expected finalize error")
	}
	if discarded != h {
		t.Error("prepared report not discarded")
	}
}

func TestRun_CancellationDiscards(t *testing.T) {
	t.Parallel()

	store, h := workingStore(t)
	var discarded *storage.Handle
	store.DiscardFunc = func(ctx context.Context, got *storage.Handle) error {
		if ctx.Err() != nil {
			t.Error("discard must run on an uncanceled context")
		}
		discarded = got
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	gen := &genFunc{next: func(c context.Context) (domain.WrittenSection, error) {
		cancel()
		return domain.WrittenSection{Title: "Intro"}, nil
	}}

	svc := NewService(testLogger(), &reportRepoMock{}, store)
	_, err := svc.Run(ctx, storage.GenerateRequest{Topic: "X"}, testOutline(), gen)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if discarded != h {
		t.Error("prepared report not discarded after cancellation")
	}
}

func TestRun_NilStoreSkipsStorage(t *testing.T) {
	t.Parallel()

	gen := &sliceGenerator{sections: []domain.WrittenSection{{Title: "Intro", Content: "ok"}}}

	svc := NewService(testLogger(), &reportRepoMock{}, nil)
	res, err := svc.Run(context.Background(), storage.GenerateRequest{Topic: "X"}, testOutline(), gen)
	if err != nil {
		t.Fatalf("Run without store: %v", err)
	}
	if res.Handle != nil {
		t.Error("handle must be nil when persistence is disabled")
	}
	if len(res.Sections) != 1 {
		t.Errorf("sections: got %d, want 1", len(res.Sections))
	}
}

type genFunc struct {
	next func(ctx context.Context) (domain.WrittenSection, error)
}

func (g *genFunc) Next(ctx context.Context) (domain.WrittenSection, error) {
	return g.next(ctx)
}

// ---------------------------------------------------------------------------
// LoadContent
// ---------------------------------------------------------------------------

func TestLoadContent_ReadsUnderBase(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store := &storeMock{BaseDirFunc: func() string { return base }}
	if err := os.MkdirAll(filepath.Join(base, "owner", "r1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "owner", "r1", "report.md"), []byte("# hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	uri := "owner/r1/report.md"
	rep := &domain.Report{ID: uuid.New(), ContentURI: &uri}

	svc := NewService(testLogger(), &reportRepoMock{}, store)
	got, err := svc.LoadContent(context.Background(), rep)
	if err != nil {
		t.Fatalf("LoadContent: %v", err)
	}
	if got != "# hi\n" {
		t.Errorf("content: %q", got)
	}
}

func TestLoadContent_NoURI(t *testing.T) {
	t.Parallel()

	store := &storeMock{BaseDirFunc: func() string { return t.TempDir() }}
	svc := NewService(testLogger(), &reportRepoMock{}, store)

	_, err := svc.LoadContent(context.Background(), &domain.Report{ID: uuid.New()})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestLoadContent_EscapingURI(t *testing.T) {
	t.Parallel()

	store := &storeMock{BaseDirFunc: func() string { return t.TempDir() }}
	svc := NewService(testLogger(), &reportRepoMock{}, store)

	uri := "../../etc/passwd"
	_, err := svc.LoadContent(context.Background(), &domain.Report{ID: uuid.New(), ContentURI: &uri})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for escaping uri, got: %v", err)
	}
}

func TestLoadContent_DisabledStorage(t *testing.T) {
	t.Parallel()

	svc := NewService(testLogger(), &reportRepoMock{}, nil)

	uri := "owner/r1/report.md"
	_, err := svc.LoadContent(context.Background(), &domain.Report{ID: uuid.New(), ContentURI: &uri})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
