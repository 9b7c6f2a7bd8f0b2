package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/presence-chat/internal/store"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

var registerValidatorsOnce sync.Once

// registerValidators adds the custom binding tags used by request structs.
// It panics if gin's validator cannot take them, since every request using
// the tags would otherwise panic later.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("gin binding validator is not go-playground/validator")
		}
		if err := v.RegisterValidation("notblank", notBlank); err != nil {
			panic(fmt.Sprintf("register notblank validator: %v", err))
		}
	})
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

const defaultPageLimit = 10

// PageQuery is the ?page=&limit= pagination of list endpoints.
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// parsePage binds pagination parameters. With neither parameter set it
// returns fallbackLimit items of the first page; a zero fallbackLimit
// selects everything.
func parsePage(c *gin.Context, fallbackLimit int) (store.Page, bool) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return store.Page{}, false
	}
	if q.Page == 0 && q.Limit == 0 {
		return store.Page{Limit: fallbackLimit}, true
	}

	page := max(q.Page, 1)
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageLimit
	}
	return store.Page{Limit: limit, Offset: (page - 1) * limit}, true
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
