package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/presence-chat/internal/auth"
	"github.com/vovakirdan/presence-chat/internal/store"
)

// UserHandlers provides HTTP handlers for user accounts.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// CreateUserRequest is the body of POST /api/users. bcrypt reads at most
// 72 bytes of a password.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=128"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// UserResponse represents a user in API responses. The password hash is
// never exposed.
type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func userResponse(u store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// ListUsers handles paginated listing, ten users per page by default.
// GET /api/users?page=&limit=
func (h *UserHandlers) ListUsers(c *gin.Context) {
	page, ok := parsePage(c, defaultPageLimit)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid pagination"})
		return
	}

	users, err := h.store.ListUsers(c.Request.Context(), page)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(users, func(u store.User, _ int) UserResponse { return userResponse(u) }))
}

// GetUser handles fetching one user.
// GET /api/users/:id
func (h *UserHandlers) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id, "failed to get user")
		return
	}
	c.JSON(http.StatusOK, userResponse(*user))
}

// CreateUser handles registration; the password is stored as a bcrypt hash.
// POST /api/users
func (h *UserHandlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create user request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user data"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to hash password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), store.UserInput{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		h.fail(c, err, 0, "failed to create user")
		return
	}

	h.log.Info().Int64("user_id", user.ID).Msg("user created")
	c.JSON(http.StatusCreated, userResponse(*user))
}

// DeleteUser handles removal and returns the deleted user.
// DELETE /api/users/:id
func (h *UserHandlers) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	user, err := h.store.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id, "failed to delete user")
		return
	}

	h.log.Info().Int64("user_id", id).Msg("user deleted")
	c.JSON(http.StatusOK, userResponse(*user))
}

func (h *UserHandlers) fail(c *gin.Context, err error, id int64, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
	case errors.Is(err, store.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "email already registered"})
	default:
		h.log.Error().Err(err).Int64("user_id", id).Msg(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
