package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/presence-chat/internal/store"
)

// ProductHandlers provides HTTP handlers for catalog products.
type ProductHandlers struct {
	store store.ProductStore
	log   *zerolog.Logger
}

// NewProductHandlers creates a new product handlers instance.
func NewProductHandlers(st store.ProductStore, logger *zerolog.Logger) *ProductHandlers {
	return &ProductHandlers{
		store: st,
		log:   logger,
	}
}

// ProductRequest represents the create/update product request body.
type ProductRequest struct {
	Name        string  `json:"name" binding:"required,notblank,max=128"`
	About       *string `json:"about" binding:"required,max=2048"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	CategoryIDs []int64 `json:"categoryIds" binding:"required,dive,gt=0"`
}

func (r ProductRequest) input() store.ProductInput {
	return store.ProductInput{
		Name:        r.Name,
		About:       lo.FromPtr(r.About),
		Price:       r.Price,
		CategoryIDs: r.CategoryIDs,
	}
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	About       string             `json:"about"`
	Price       float64            `json:"price"`
	CategoryIDs []int64            `json:"categoryIds"`
	Categories  []CategoryResponse `json:"categories"`
	CreatedAt   string             `json:"created_at"`
}

func productResponse(p store.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		About:       p.About,
		Price:       p.Price,
		CategoryIDs: lo.Ternary(p.CategoryIDs == nil, []int64{}, p.CategoryIDs),
		Categories:  lo.Map(p.Categories, func(c store.Category, _ int) CategoryResponse { return categoryResponse(c) }),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// ListProducts handles listing products with their categories. Without
// ?page or ?limit every product is returned.
// GET /api/products
func (h *ProductHandlers) ListProducts(c *gin.Context) {
	page, ok := parsePage(c, 0)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid pagination"})
		return
	}

	products, err := h.store.ListProducts(c.Request.Context(), page)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list products")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, lo.Map(products, func(p store.Product, _ int) ProductResponse { return productResponse(p) }))
}

// GetProduct handles fetching one product.
// GET /api/products/:id
func (h *ProductHandlers) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
		return
	}

	product, err := h.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id, "failed to get product")
		return
	}
	c.JSON(http.StatusOK, productResponse(*product))
}

// CreateProduct handles product creation.
// POST /api/products
func (h *ProductHandlers) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create product request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product data"})
		return
	}

	product, err := h.store.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err, 0, "failed to create product")
		return
	}

	h.log.Info().Int64("product_id", product.ID).Str("name", product.Name).Msg("product created")
	c.JSON(http.StatusCreated, productResponse(*product))
}

// UpdateProduct handles replacing a product.
// PUT /api/products/:id
func (h *ProductHandlers) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update product request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product data"})
		return
	}

	product, err := h.store.UpdateProduct(c.Request.Context(), id, req.input())
	if err != nil {
		h.fail(c, err, id, "failed to update product")
		return
	}
	c.JSON(http.StatusOK, productResponse(*product))
}

// DeleteProduct handles product removal.
// DELETE /api/products/:id
func (h *ProductHandlers) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
		return
	}

	if err := h.store.DeleteProduct(c.Request.Context(), id); err != nil {
		h.fail(c, err, id, "failed to delete product")
		return
	}

	h.log.Info().Int64("product_id", id).Msg("product deleted")
	c.JSON(http.StatusOK, MessageResponse{Message: "product deleted"})
}

func (h *ProductHandlers) fail(c *gin.Context, err error, id int64, msg string) {
	switch {
	case errors.Is(err, store.ErrUnknownCategory):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "one or more categories do not exist"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
	default:
		h.log.Error().Err(err).Int64("product_id", id).Msg(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
