package rest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// reportService defines the minimal interface needed by ReportHandler.
type reportService interface {
	List(ctx context.Context, user *domain.User, filter domain.ReportListFilter) ([]*domain.Report, error)
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Report, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error
	LoadContent(ctx context.Context, rep *domain.Report) (string, error)
}

// ReportHandler serves the report REST endpoints.
type ReportHandler struct {
	svc   reportService
	ident *Identity
	log   *slog.Logger
	md    goldmark.Markdown
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc reportService, ident *Identity, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		svc:   svc,
		ident: ident,
		log:   logger.With("handler", "reports"),
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

type reportResponse struct {
	ID          string     `json:"id"`
	TopicID     string     `json:"topic_id"`
	Status      string     `json:"status"`
	Title       string     `json:"title"`
	Summary     *string    `json:"summary,omitempty"`
	ContentURI  *string    `json:"content_uri,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Content     *string    `json:"content,omitempty"`
}

type reportListResponse struct {
	Reports []reportResponse `json:"reports"`
}

// List handles GET /api/reports. Optional query params: status, topic_id,
// include_content=true.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseReportFilter(w, r)
	if !ok {
		return
	}

	user, err := h.ident.Viewer(r)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusOK, reportListResponse{Reports: []reportResponse{}})
		return
	}
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	reports, err := h.svc.List(r.Context(), user, filter)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	includeContent := r.URL.Query().Get("include_content") == "true"
	resp := reportListResponse{Reports: make([]reportResponse, 0, len(reports))}
	for _, rep := range reports {
		item := toReportResponse(rep)
		if includeContent {
			h.attachContent(r.Context(), rep, &item)
		}
		resp.Reports = append(resp.Reports, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/reports/{id}. include_content=true inlines the
// transcript.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.lookup(w, r)
	if !ok {
		return
	}

	item := toReportResponse(rep)
	if r.URL.Query().Get("include_content") == "true" {
		h.attachContent(r.Context(), rep, &item)
	}
	writeJSON(w, http.StatusOK, item)
}

// HTML handles GET /api/reports/{id}/html, rendering the stored markdown
// transcript.
func (h *ReportHandler) HTML(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.lookup(w, r)
	if !ok {
		return
	}

	content, err := h.svc.LoadContent(r.Context(), rep)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := h.md.Convert([]byte(content), &buf); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// Delete handles DELETE /api/reports/{id}.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.ident.Acting(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// lookup resolves the viewer and fetches the addressed report, writing the
// error response itself on failure.
func (h *ReportHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Report, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	user, err := h.ident.Viewer(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return nil, false
	}

	rep, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		handleError(w, r, h.log, err)
		return nil, false
	}
	return rep, true
}

// attachContent inlines the transcript when it exists. A report whose
// content is gone from disk still lists fine without it.
func (h *ReportHandler) attachContent(ctx context.Context, rep *domain.Report, item *reportResponse) {
	content, err := h.svc.LoadContent(ctx, rep)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx, "load report content", "report_id", rep.ID, "error", err)
		return
	}
	item.Content = &content
}

func parseReportFilter(w http.ResponseWriter, r *http.Request) (domain.ReportListFilter, bool) {
	var filter domain.ReportListFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := domain.ReportStatus(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return filter, false
		}
		filter.Status = &status
	}
	if raw := q.Get("topic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid topic_id")
			return filter, false
		}
		filter.TopicID = &id
	}
	return filter, true
}

func toReportResponse(rep *domain.Report) reportResponse {
	return reportResponse{
		ID:          rep.ID.String(),
		TopicID:     rep.TopicID.String(),
		Status:      string(rep.Status),
		Title:       rep.OutlineSnapshot.ReportTitle,
		Summary:     rep.Summary,
		ContentURI:  rep.ContentURI,
		StartedAt:   rep.StartedAt,
		CompletedAt: rep.CompletedAt,
	}
}
