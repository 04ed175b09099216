package report

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/explorerhq/explorer-backend/internal/domain"
	"github.com/explorerhq/explorer-backend/internal/storage"
)

// summaryMaxRunes caps the derived summary length.
const summaryMaxRunes = 280

// SectionGenerator is the external generation engine, seen one section at a
// time. Next returns io.EOF after the last section. The engine's failures
// are opaque to this service; any non-EOF error aborts the run.
type SectionGenerator interface {
	Next(ctx context.Context) (domain.WrittenSection, error)
}

// RunResult is everything one generation run produced. Handle is nil when
// persistence is disabled.
type RunResult struct {
	Handle     *storage.Handle
	Sections   []domain.WrittenSection
	Transcript string
	Summary    *string
}

// Run executes one report generation: prepare, drain the generator,
// assemble the transcript, finalize. Any generator or finalize failure,
// including cancellation, discards the prepared report so no RUNNING row or
// half-written directory outlives the request.
func (s *Service) Run(ctx context.Context, req storage.GenerateRequest, outline domain.Outline, gen SectionGenerator) (*RunResult, error) {
	var h *storage.Handle
	if s.store != nil {
		var err error
		h, err = s.store.Prepare(ctx, req, outline)
		if err != nil {
			return nil, err
		}
	}

	written, err := s.drain(ctx, gen)
	if err != nil {
		s.discard(ctx, h)
		return nil, err
	}

	transcript := assembleTranscript(outline, written)
	summary := summarize(written)

	if s.store != nil {
		if err := s.store.Finalize(ctx, h, transcript, written, summary); err != nil {
			s.discard(ctx, h)
			return nil, err
		}
	}

	s.log.InfoContext(ctx, "report generated", "topic", req.Topic, "sections", len(written))

	return &RunResult{
		Handle:     h,
		Sections:   written,
		Transcript: domain.TranscriptText(transcript),
		Summary:    summary,
	}, nil
}

func (s *Service) drain(ctx context.Context, gen SectionGenerator) ([]domain.WrittenSection, error) {
	var written []domain.WrittenSection
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sec, err := gen.Next(ctx)
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return nil, err
		}

		written = append(written, sec)
	}
}

func (s *Service) discard(ctx context.Context, h *storage.Handle) {
	if s.store == nil || h == nil {
		return
	}
	// Discard must run even when ctx is already canceled.
	if err := s.store.Discard(context.WithoutCancel(ctx), h); err != nil {
		s.log.ErrorContext(ctx, "discard after failed run", "report_id", h.ReportID, "error", err)
	}
}

// assembleTranscript renders the outline title and written sections as one
// markdown document.
func assembleTranscript(outline domain.Outline, written []domain.WrittenSection) string {
	var b strings.Builder

	if outline.ReportTitle != "" {
		b.WriteString("# ")
		b.WriteString(outline.ReportTitle)
		b.WriteString("\n\n")
	}
	for _, sec := range written {
		b.WriteString("## ")
		b.WriteString(sec.Title)
		b.WriteString("\n\n")
		if sec.Content != "" {
			b.WriteString(sec.Content)
			b.WriteString("\n\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// summarize derives a short summary from the first non-empty section.
func summarize(written []domain.WrittenSection) *string {
	for _, sec := range written {
		text := strings.TrimSpace(sec.Content)
		if text == "" {
			continue
		}
		if line, _, found := strings.Cut(text, "\n"); found {
			text = line
		}
		runes := []rune(text)
		if len(runes) > summaryMaxRunes {
			text = string(runes[:summaryMaxRunes])
		}
		return &text
	}
	return nil
}
