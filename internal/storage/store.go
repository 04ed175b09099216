package storage

import (
	"context"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// GenerateRequest identifies who asked for a report on what.
// Empty UserEmail and Username fall back to the configured defaults.
type GenerateRequest struct {
	Topic     string
	UserEmail string
	Username  string
}

// Store is the report artifact lifecycle. An implementation is chosen once
// at startup (file-only, dual, or nil when persistence is disabled); callers
// never branch on the concrete type.
//
// Prepare claims a directory (and, in the dual variant, a RUNNING row) for a
// new report. Finalize promotes a prepared report to its terminal state.
// Discard undoes a prepare that will never finalize; it is idempotent and
// tolerates partially-created state.
type Store interface {
	Prepare(ctx context.Context, req GenerateRequest, outline domain.Outline) (*Handle, error)
	Finalize(ctx context.Context, h *Handle, transcript string, written []domain.WrittenSection, summary *string) error
	Discard(ctx context.Context, h *Handle) error
	BaseDir() string
}
