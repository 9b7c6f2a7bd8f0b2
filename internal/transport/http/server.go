package http

import (
	_ "embed"
	"html/template"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-chat/internal/config"
	"github.com/vovakirdan/presence-chat/internal/metrics"
	"github.com/vovakirdan/presence-chat/internal/store"
)

//go:embed web/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// NewServer builds the HTTP server: chat page, WebSocket endpoint, metrics and
// the REST API. A nil store leaves the /api routes unregistered.
//
// /ws is served by a plain ServeMux in front of gin: gin's writer reports the
// 101 handshake as already written and refuses to hijack the connection.
func NewServer(hub Hub, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.SetHTMLTemplate(indexTemplate)

	router.GET("/", indexHandler(cfg.TypingIdle))
	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if st != nil {
		registerAPI(router.Group("/api"), st, logger)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func registerAPI(api *gin.RouterGroup, st store.Store, logger *zerolog.Logger) {
	categories := NewCategoryHandlers(st, logger)
	api.GET("/categories", categories.ListCategories)
	api.GET("/categories/:id", categories.GetCategory)
	api.POST("/categories", categories.CreateCategory)
	api.PUT("/categories/:id", categories.UpdateCategory)
	api.DELETE("/categories/:id", categories.DeleteCategory)

	products := NewProductHandlers(st, logger)
	api.GET("/products", products.ListProducts)
	api.GET("/products/:id", products.GetProduct)
	api.POST("/products", products.CreateProduct)
	api.PUT("/products/:id", products.UpdateProduct)
	api.DELETE("/products/:id", products.DeleteProduct)

	for path, kind := range map[string]store.TrackedKind{
		"/views":   store.KindView,
		"/actions": store.KindAction,
		"/goals":   store.KindGoal,
	} {
		h := NewTrackedHandlers(kind, st, logger)
		api.GET(path, h.List)
		api.GET(path+"/:id", h.Get)
		api.POST(path, h.Create)
		api.PUT(path+"/:id", h.Update)
		api.DELETE(path+"/:id", h.Delete)
		if kind == store.KindGoal {
			api.GET(path+"/:id/details", h.Details)
		}
	}

	users := NewUserHandlers(st, logger)
	api.GET("/users", users.ListUsers)
	api.GET("/users/:id", users.GetUser)
	api.POST("/users", users.CreateUser)
	api.DELETE("/users/:id", users.DeleteUser)
}

// indexHandler renders the chat page with the browser's typing debounce window.
func indexHandler(typingIdle time.Duration) gin.HandlerFunc {
	if typingIdle <= 0 {
		typingIdle = time.Second
	}
	return func(c *gin.Context) {
		c.HTML(stdhttp.StatusOK, "index", gin.H{"TypingIdleMS": typingIdle.Milliseconds()})
	}
}
