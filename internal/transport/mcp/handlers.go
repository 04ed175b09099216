package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/explorerhq/explorer-backend/internal/domain"
	"github.com/explorerhq/explorer-backend/internal/generator"
	"github.com/explorerhq/explorer-backend/internal/service/report"
	"github.com/explorerhq/explorer-backend/internal/storage"
)

// Service interfaces consumed by the tool handlers.

type userService interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type collectionService interface {
	List(ctx context.Context, user *domain.User) ([]*domain.Collection, error)
}

type topicService interface {
	List(ctx context.Context, user *domain.User, collectionID *uuid.UUID) ([]*domain.SavedTopic, error)
}

type reportService interface {
	List(ctx context.Context, user *domain.User, filter domain.ReportListFilter) ([]*domain.Report, error)
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Report, error)
	LoadContent(ctx context.Context, rep *domain.Report) (string, error)
	Run(ctx context.Context, req storage.GenerateRequest, outline domain.Outline, gen report.SectionGenerator) (*report.RunResult, error)
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	users        userService
	collections  collectionService
	topics       topicService
	reports      reportService
	defaultEmail string
	log          *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(users userService, collections collectionService, topics topicService, reports reportService, defaultEmail string, logger *slog.Logger) *Handlers {
	return &Handlers{
		users:        users,
		collections:  collections,
		topics:       topics,
		reports:      reports,
		defaultEmail: defaultEmail,
		log:          logger.With("transport", "mcp"),
	}
}

// Request types for each tool

// ReportListRequest represents the arguments for report_list.
type ReportListRequest struct {
	UserEmail      string `json:"user_email,omitempty"`
	Status         string `json:"status,omitempty"`
	TopicID        string `json:"topic_id,omitempty"`
	IncludeContent bool   `json:"include_content,omitempty"`
}

// ReportGetRequest represents the arguments for report_get.
type ReportGetRequest struct {
	ID             string `json:"id"`
	UserEmail      string `json:"user_email,omitempty"`
	IncludeContent bool   `json:"include_content,omitempty"`
}

// ReportGenerateRequest represents the arguments for report_generate.
type ReportGenerateRequest struct {
	Topic       string           `json:"topic"`
	ReportTitle string           `json:"report_title,omitempty"`
	Sections    []SectionRequest `json:"sections"`
	UserEmail   string           `json:"user_email,omitempty"`
	Username    string           `json:"username,omitempty"`
}

// SectionRequest is one outline entry in report_generate.
type SectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TopicListRequest represents the arguments for topic_list.
type TopicListRequest struct {
	UserEmail    string `json:"user_email,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
}

// CollectionListRequest represents the arguments for collection_list.
type CollectionListRequest struct {
	UserEmail string `json:"user_email,omitempty"`
}

// Wire types shared by list and get results.

type reportItem struct {
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

type topicItem struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	CollectionID *string `json:"collection_id,omitempty"`
}

type collectionItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	TopicCount int    `json:"topic_count"`
}

// viewer resolves the scoping user for read tools. A missing or unknown
// email yields nil without creating a user; callers translate nil into an
// empty result set.
func (h *Handlers) viewer(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		email = h.defaultEmail
	}
	user, err := h.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// HandleReportList implements the report_list tool.
func (h *Handlers) HandleReportList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[ReportListRequest](req)
	if err != nil {
		return errorResult(domain.NewValidationError("arguments", err.Error())), nil
	}

	var filter domain.ReportListFilter
	if args.Status != "" {
		status := domain.ReportStatus(args.Status)
		if !status.Valid() {
			return errorResult(domain.NewValidationError("status", "must be running or complete")), nil
		}
		filter.Status = &status
	}
	if args.TopicID != "" {
		id, err := uuid.Parse(args.TopicID)
		if err != nil {
			return errorResult(domain.NewValidationError("topic_id", "must be a UUID")), nil
		}
		filter.TopicID = &id
	}

	user, err := h.viewer(ctx, args.UserEmail)
	if err != nil {
		return errorResult(err), nil
	}
	if user == nil {
		return successResult(map[string]any{"reports": []reportItem{}})
	}

	reports, err := h.reports.List(ctx, user, filter)
	if err != nil {
		return errorResult(err), nil
	}

	items := make([]reportItem, 0, len(reports))
	for _, rep := range reports {
		item := toReportItem(rep)
		if args.IncludeContent {
			h.attachContent(ctx, rep, &item)
		}
		items = append(items, item)
	}
	return successResult(map[string]any{"reports": items})
}

// HandleReportGet implements the report_get tool.
func (h *Handlers) HandleReportGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[ReportGetRequest](req)
	if err != nil {
		return errorResult(domain.NewValidationError("arguments", err.Error())), nil
	}

	id, err := uuid.Parse(args.ID)
	if err != nil {
		return errorResult(domain.NewValidationError("id", "must be a UUID")), nil
	}

	user, err := h.viewer(ctx, args.UserEmail)
	if err != nil {
		return errorResult(err), nil
	}
	if user == nil {
		return errorResult(domain.ErrNotFound), nil
	}

	rep, err := h.reports.Get(ctx, user, id)
	if err != nil {
		return errorResult(err), nil
	}

	item := toReportItem(rep)
	if args.IncludeContent {
		h.attachContent(ctx, rep, &item)
	}
	return successResult(item)
}

// HandleReportGenerate implements the report_generate tool. It drives the
// full prepare/finalize lifecycle against the configured store using the
// stand-in section engine.
func (h *Handlers) HandleReportGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[ReportGenerateRequest](req)
	if err != nil {
		return errorResult(domain.NewValidationError("arguments", err.Error())), nil
	}
	if args.Topic == "" {
		return errorResult(domain.NewValidationError("topic", "must not be empty")), nil
	}
	if len(args.Sections) == 0 {
		return errorResult(domain.NewValidationError("sections", "must not be empty")), nil
	}

	title := args.ReportTitle
	if title == "" {
		title = args.Topic
	}
	outline := domain.Outline{ReportTitle: title}
	for _, sec := range args.Sections {
		if sec.Title == "" {
			return errorResult(domain.NewValidationError("sections", "every section needs a title")), nil
		}
		outline.Sections = append(outline.Sections, domain.OutlineSection{
			Title:       sec.Title,
			Description: sec.Description,
		})
	}

	res, err := h.reports.Run(ctx, storage.GenerateRequest{
		Topic:     args.Topic,
		UserEmail: args.UserEmail,
		Username:  args.Username,
	}, outline, generator.NewEcho(outline))
	if err != nil {
		return errorResult(err), nil
	}

	out := map[string]any{
		"topic":      args.Topic,
		"sections":   len(res.Sections),
		"transcript": res.Transcript,
	}
	if res.Summary != nil {
		out["summary"] = *res.Summary
	}
	if res.Handle != nil {
		out["report_id"] = res.Handle.ReportID.String()
		out["content_uri"] = res.Handle.ContentURI()
	}
	return successResult(out)
}

// HandleTopicList implements the topic_list tool.
func (h *Handlers) HandleTopicList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[TopicListRequest](req)
	if err != nil {
		return errorResult(domain.NewValidationError("arguments", err.Error())), nil
	}

	var collectionID *uuid.UUID
	if args.CollectionID != "" {
		id, err := uuid.Parse(args.CollectionID)
		if err != nil {
			return errorResult(domain.NewValidationError("collection_id", "must be a UUID")), nil
		}
		collectionID = &id
	}

	user, err := h.viewer(ctx, args.UserEmail)
	if err != nil {
		return errorResult(err), nil
	}
	if user == nil {
		return successResult(map[string]any{"saved_topics": []topicItem{}})
	}

	topics, err := h.topics.List(ctx, user, collectionID)
	if err != nil {
		return errorResult(err), nil
	}

	items := make([]topicItem, 0, len(topics))
	for _, tp := range topics {
		item := topicItem{ID: tp.ID.String(), Title: tp.Title, Slug: tp.Slug}
		if tp.CollectionID != nil {
			s := tp.CollectionID.String()
			item.CollectionID = &s
		}
		items = append(items, item)
	}
	return successResult(map[string]any{"saved_topics": items})
}

// HandleCollectionList implements the collection_list tool.
func (h *Handlers) HandleCollectionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[CollectionListRequest](req)
	if err != nil {
		return errorResult(domain.NewValidationError("arguments", err.Error())), nil
	}

	user, err := h.viewer(ctx, args.UserEmail)
	if err != nil {
		return errorResult(err), nil
	}
	if user == nil {
		return successResult(map[string]any{"collections": []collectionItem{}})
	}

	cols, err := h.collections.List(ctx, user)
	if err != nil {
		return errorResult(err), nil
	}

	items := make([]collectionItem, 0, len(cols))
	for _, c := range cols {
		items = append(items, collectionItem{
			ID:         c.ID.String(),
			Name:       c.Name,
			Position:   c.Position,
			TopicCount: c.TopicCount,
		})
	}
	return successResult(map[string]any{"collections": items})
}

func (h *Handlers) attachContent(ctx context.Context, rep *domain.Report, item *reportItem) {
	content, err := h.reports.LoadContent(ctx, rep)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx, "load report content", "report_id", rep.ID, "error", err)
		return
	}
	item.Content = &content
}

func toReportItem(rep *domain.Report) reportItem {
	return reportItem{
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

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed to the client.
func errorResult(err error) *mcp.CallToolResult {
	code, status := "INTERNAL", http.StatusInternalServerError
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrValidation):
		code, status = "INVALID_REQUEST", http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		code, status = "NOT_FOUND", http.StatusNotFound
		message = "not found"
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		code, status = "CONFLICT", http.StatusConflict
		message = "conflict"
	}

	payload := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"status":  status,
		},
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
