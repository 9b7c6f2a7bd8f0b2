package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-chat/internal/store"
)

// CategoryHandlers provides HTTP handlers for catalog categories.
type CategoryHandlers struct {
	store store.CategoryStore
	log   *zerolog.Logger
}

// NewCategoryHandlers creates a new category handlers instance.
func NewCategoryHandlers(st store.CategoryStore, logger *zerolog.Logger) *CategoryHandlers {
	return &CategoryHandlers{
		store: st,
		log:   logger,
	}
}

// CategoryRequest represents the create/update category request body.
type CategoryRequest struct {
	Name string `json:"name" binding:"required,notblank,max=128"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func categoryResponse(c store.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// ListCategories handles listing all categories.
// GET /api/categories
func (h *CategoryHandlers) ListCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list categories")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, categoryResponse(category))
	}
	c.JSON(http.StatusOK, response)
}

// GetCategory handles fetching one category.
// GET /api/categories/:id
func (h *CategoryHandlers) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category id"})
		return
	}

	category, err := h.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id, "failed to get category")
		return
	}
	c.JSON(http.StatusOK, categoryResponse(*category))
}

// CreateCategory handles category creation.
// POST /api/categories
func (h *CategoryHandlers) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create category request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	category, err := h.store.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("failed to create category")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("category_id", category.ID).Str("name", category.Name).Msg("category created")
	c.JSON(http.StatusCreated, categoryResponse(*category))
}

// UpdateCategory handles renaming a category.
// PUT /api/categories/:id
func (h *CategoryHandlers) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category id"})
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update category request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	category, err := h.store.UpdateCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		h.fail(c, err, id, "failed to update category")
		return
	}
	c.JSON(http.StatusOK, categoryResponse(*category))
}

// DeleteCategory handles category removal.
// DELETE /api/categories/:id
func (h *CategoryHandlers) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category id"})
		return
	}

	if err := h.store.DeleteCategory(c.Request.Context(), id); err != nil {
		h.fail(c, err, id, "failed to delete category")
		return
	}

	h.log.Info().Int64("category_id", id).Msg("category deleted")
	c.JSON(http.StatusOK, MessageResponse{Message: "category deleted"})
}

func (h *CategoryHandlers) fail(c *gin.Context, err error, id int64, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "category not found"})
	case errors.Is(err, store.ErrCategoryInUse):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "category is used by products"})
	default:
		h.log.Error().Err(err).Int64("category_id", id).Msg(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
