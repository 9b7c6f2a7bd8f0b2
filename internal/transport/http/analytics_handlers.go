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

// TrackedRequest holds the fields shared by views, actions and goals.
type TrackedRequest struct {
	Source    string         `json:"source" binding:"required,notblank,max=128"`
	URL       string         `json:"url" binding:"required,url,max=2048"`
	Visitor   string         `json:"visitor" binding:"required,notblank,max=128"`
	CreatedAt *time.Time     `json:"createdAt"`
	Meta      map[string]any `json:"meta"`
}

func (r TrackedRequest) input(label string) store.TrackedInput {
	return store.TrackedInput{
		Source:    r.Source,
		URL:       r.URL,
		Label:     label,
		Visitor:   r.Visitor,
		Meta:      r.Meta,
		CreatedAt: lo.FromPtr(r.CreatedAt),
	}
}

// ActionRequest is the body of POST/PUT /api/actions.
type ActionRequest struct {
	TrackedRequest
	Action string `json:"action" binding:"required,notblank,max=128"`
}

// GoalRequest is the body of POST/PUT /api/goals.
type GoalRequest struct {
	TrackedRequest
	Goal string `json:"goal" binding:"required,notblank,max=128"`
}

// TrackedResponse represents a view, action or goal in API responses.
type TrackedResponse struct {
	ID        int64          `json:"id"`
	Source    string         `json:"source"`
	URL       string         `json:"url"`
	Action    string         `json:"action,omitempty"`
	Goal      string         `json:"goal,omitempty"`
	Visitor   string         `json:"visitor"`
	Meta      map[string]any `json:"meta"`
	CreatedAt string         `json:"createdAt"`
}

func trackedResponse(t store.Tracked) TrackedResponse {
	resp := TrackedResponse{
		ID:        t.ID,
		Source:    t.Source,
		URL:       t.URL,
		Visitor:   t.Visitor,
		Meta:      lo.Ternary(t.Meta == nil, map[string]any{}, t.Meta),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
	switch t.Kind {
	case store.KindAction:
		resp.Action = t.Label
	case store.KindGoal:
		resp.Goal = t.Label
	}
	return resp
}

func trackedResponses(records []store.Tracked) []TrackedResponse {
	return lo.Map(records, func(t store.Tracked, _ int) TrackedResponse { return trackedResponse(t) })
}

// GoalDetailsResponse is a goal with its visitor's views and actions.
type GoalDetailsResponse struct {
	Goal      TrackedResponse  `json:"goal"`
	Analytics AnalyticsDetails `json:"analytics"`
}

// AnalyticsDetails groups the records joined to a goal.
type AnalyticsDetails struct {
	Views   []TrackedResponse `json:"views"`
	Actions []TrackedResponse `json:"actions"`
	Summary AnalyticsSummary  `json:"summary"`
}

// AnalyticsSummary counts the joined records.
type AnalyticsSummary struct {
	TotalViews   int    `json:"totalViews"`
	TotalActions int    `json:"totalActions"`
	Visitor      string `json:"visitor"`
}

// TrackedHandlers provides CRUD handlers for one analytics record kind.
type TrackedHandlers struct {
	kind  store.TrackedKind
	store store.AnalyticsStore
	log   *zerolog.Logger
}

// NewTrackedHandlers creates handlers for records of the given kind.
func NewTrackedHandlers(kind store.TrackedKind, st store.AnalyticsStore, logger *zerolog.Logger) *TrackedHandlers {
	return &TrackedHandlers{
		kind:  kind,
		store: st,
		log:   logger,
	}
}

// bind decodes the request body for this handler's kind.
func (h *TrackedHandlers) bind(c *gin.Context) (store.TrackedInput, error) {
	switch h.kind {
	case store.KindAction:
		var req ActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return store.TrackedInput{}, err
		}
		return req.input(req.Action), nil
	case store.KindGoal:
		var req GoalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return store.TrackedInput{}, err
		}
		return req.input(req.Goal), nil
	default:
		var req TrackedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return store.TrackedInput{}, err
		}
		return req.input(""), nil
	}
}

// List handles GET /api/{views,actions,goals}.
func (h *TrackedHandlers) List(c *gin.Context) {
	records, err := h.store.ListTracked(c.Request.Context(), h.kind)
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(h.kind)).Msg("failed to list records")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, trackedResponses(records))
}

// Get handles GET /api/{views,actions,goals}/:id.
func (h *TrackedHandlers) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + string(h.kind) + " id"})
		return
	}

	record, err := h.store.GetTracked(c.Request.Context(), h.kind, id)
	if err != nil {
		h.fail(c, err, id, "failed to get record")
		return
	}
	c.JSON(http.StatusOK, trackedResponse(*record))
}

// Create handles POST /api/{views,actions,goals}.
func (h *TrackedHandlers) Create(c *gin.Context) {
	in, err := h.bind(c)
	if err != nil {
		h.log.Debug().Err(err).Str("kind", string(h.kind)).Msg("invalid create request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + string(h.kind) + " data"})
		return
	}

	record, err := h.store.CreateTracked(c.Request.Context(), h.kind, in)
	if err != nil {
		h.fail(c, err, 0, "failed to create record")
		return
	}
	c.JSON(http.StatusCreated, trackedResponse(*record))
}

// Update handles PUT /api/{views,actions,goals}/:id.
func (h *TrackedHandlers) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + string(h.kind) + " id"})
		return
	}

	in, err := h.bind(c)
	if err != nil {
		h.log.Debug().Err(err).Str("kind", string(h.kind)).Msg("invalid update request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + string(h.kind) + " data"})
		return
	}

	record, err := h.store.UpdateTracked(c.Request.Context(), h.kind, id, in)
	if err != nil {
		h.fail(c, err, id, "failed to update record")
		return
	}
	c.JSON(http.StatusOK, trackedResponse(*record))
}

// Delete handles DELETE /api/{views,actions,goals}/:id.
func (h *TrackedHandlers) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + string(h.kind) + " id"})
		return
	}

	if err := h.store.DeleteTracked(c.Request.Context(), h.kind, id); err != nil {
		h.fail(c, err, id, "failed to delete record")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: string(h.kind) + " deleted"})
}

// Details handles GET /api/goals/:id/details.
func (h *TrackedHandlers) Details(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid goal id"})
		return
	}

	details, err := h.store.GoalDetails(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id, "failed to load goal details")
		return
	}

	c.JSON(http.StatusOK, GoalDetailsResponse{
		Goal: trackedResponse(details.Goal),
		Analytics: AnalyticsDetails{
			Views:   trackedResponses(details.Views),
			Actions: trackedResponses(details.Actions),
			Summary: AnalyticsSummary{
				TotalViews:   len(details.Views),
				TotalActions: len(details.Actions),
				Visitor:      details.Goal.Visitor,
			},
		},
	})
}

func (h *TrackedHandlers) fail(c *gin.Context, err error, id int64, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: string(h.kind) + " not found"})
		return
	}
	h.log.Error().Err(err).Str("kind", string(h.kind)).Int64("id", id).Msg(msg)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
