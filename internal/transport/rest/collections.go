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
	"github.com/explorerhq/explorer-backend/internal/service/collection"
)

// collectionService defines the minimal interface needed by CollectionHandler.
type collectionService interface {
	List(ctx context.Context, user *domain.User) ([]*domain.Collection, error)
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Collection, error)
	Create(ctx context.Context, user *domain.User, params collection.CreateParams) (*domain.Collection, error)
	Update(ctx context.Context, user *domain.User, id uuid.UUID, params domain.CollectionUpdateParams) (*domain.Collection, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error
}

// CollectionHandler serves the collection REST endpoints.
type CollectionHandler struct {
	svc   collectionService
	ident *Identity
	log   *slog.Logger
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(svc collectionService, ident *Identity, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{svc: svc, ident: ident, log: logger.With("handler", "collections")}
}

type collectionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

type collectionPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	Position    *int    `json:"position"`
}

type collectionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Position    int       `json:"position"`
	TopicCount  int       `json:"topic_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type collectionListResponse struct {
	Collections []collectionResponse `json:"collections"`
}

// List handles GET /api/collections.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := h.ident.Viewer(r)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusOK, collectionListResponse{Collections: []collectionResponse{}})
		return
	}
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	cols, err := h.svc.List(r.Context(), user)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := collectionListResponse{Collections: make([]collectionResponse, 0, len(cols))}
	for _, c := range cols {
		resp.Collections = append(resp.Collections, toCollectionResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/collections/{id}.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.ident.Viewer(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	col, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollectionResponse(col))
}

// Create handles POST /api/collections.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.ident.Acting(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	col, err := h.svc.Create(r.Context(), user, collection.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCollectionResponse(col))
}

// Update handles PATCH /api/collections/{id}.
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req collectionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.ident.Acting(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	col, err := h.svc.Update(r.Context(), user, id, domain.CollectionUpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		Position:    req.Position,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollectionResponse(col))
}

// Delete handles DELETE /api/collections/{id}.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func toCollectionResponse(c *domain.Collection) collectionResponse {
	return collectionResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		Position:    c.Position,
		TopicCount:  c.TopicCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// pathID parses the {id} path segment, writing a 400 on malformed input.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
