package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// topicService defines the minimal interface needed by TopicHandler.
type topicService interface {
	List(ctx context.Context, user *domain.User, collectionID *uuid.UUID) ([]*domain.SavedTopic, error)
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.SavedTopic, error)
	Create(ctx context.Context, user *domain.User, title string, collectionID *uuid.UUID) (*domain.SavedTopic, error)
	Move(ctx context.Context, user *domain.User, id uuid.UUID, collectionID *uuid.UUID) (*domain.SavedTopic, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error
}

// TopicHandler serves the saved-topic REST endpoints.
type TopicHandler struct {
	svc   topicService
	ident *Identity
	log   *slog.Logger
}

// NewTopicHandler creates a TopicHandler.
func NewTopicHandler(svc topicService, ident *Identity, logger *slog.Logger) *TopicHandler {
	return &TopicHandler{svc: svc, ident: ident, log: logger.With("handler", "saved_topics")}
}

type topicCreateRequest struct {
	Title        string     `json:"title"`
	CollectionID *uuid.UUID `json:"collection_id"`
}

// topicPatchRequest moves a topic between collections; an explicit JSON null
// detaches it.
type topicPatchRequest struct {
	CollectionID *uuid.UUID `json:"collection_id"`
}

type topicResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	CollectionID *string   `json:"collection_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type topicListResponse struct {
	SavedTopics []topicResponse `json:"saved_topics"`
}

// List handles GET /api/saved_topics. An optional collection_id query param
// narrows the listing to one collection.
func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	var collectionID *uuid.UUID
	if raw := r.URL.Query().Get("collection_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid collection_id")
			return
		}
		collectionID = &id
	}

	user, err := h.ident.Viewer(r)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusOK, topicListResponse{SavedTopics: []topicResponse{}})
		return
	}
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	topics, err := h.svc.List(r.Context(), user, collectionID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := topicListResponse{SavedTopics: make([]topicResponse, 0, len(topics))}
	for _, tp := range topics {
		resp.SavedTopics = append(resp.SavedTopics, toTopicResponse(tp))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/saved_topics. Saving an already-known title
// returns the existing topic instead of duplicating it.
func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req topicCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.ident.Acting(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	topic, err := h.svc.Create(r.Context(), user, req.Title, req.CollectionID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTopicResponse(topic))
}

// Update handles PATCH /api/saved_topics/{id}.
func (h *TopicHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req topicPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.ident.Acting(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	topic, err := h.svc.Move(r.Context(), user, id, req.CollectionID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toTopicResponse(topic))
}

// Delete handles DELETE /api/saved_topics/{id}.
func (h *TopicHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func toTopicResponse(t *domain.SavedTopic) topicResponse {
	resp := topicResponse{
		ID:        t.ID.String(),
		Title:     t.Title,
		Slug:      t.Slug,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.CollectionID != nil {
		s := t.CollectionID.String()
		resp.CollectionID = &s
	}
	return resp
}
