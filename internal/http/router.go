package http

import (
	"log/slog"

	"github.com/geocoder89/addressbook/internal/auth"
	"github.com/geocoder89/addressbook/internal/config"
	"github.com/geocoder89/addressbook/internal/http/handlers"
	"github.com/geocoder89/addressbook/internal/http/middlewares"
	"github.com/geocoder89/addressbook/internal/observability"
	"github.com/geocoder89/addressbook/internal/ratelimit"
	"github.com/geocoder89/addressbook/internal/repo"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Dependencies struct {
	Store  *repo.Store
	Tokens *auth.Manager
	// Limiter guards /auth. nil disables rate limiting.
	Limiter ratelimit.Limiter
	// Prom is optional; nil disables /metrics and HTTP metrics.
	Prom *observability.Prom
}

func NewRouter(cfg config.Config, deps Dependencies) *gin.Engine {
	switch cfg.Env {
	case "dev":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// gin trusts every proxy by default; ClientIP keys the rate limiter, so only listed proxies count
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		slog.Default().Error("invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(deps.Store.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	// wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Store.Users, deps.Store.Users, deps.Tokens, deps.Prom)
	contactsHandler := handlers.NewContactsHandler(deps.Store.Contacts)
	authMiddleware := middlewares.NewAuthMiddleware(deps.Tokens, deps.Store.Users, deps.Prom)

	authGroup := r.Group("/auth")
	if deps.Limiter != nil {
		authGroup.Use(middlewares.RateLimit(deps.Limiter, middlewares.KeyByIP))
	}
	authGroup.POST("/register", middlewares.RequireJSON(), authHandler.Register)
	authGroup.POST("/token", authHandler.Login)

	contacts := r.Group("/contacts", authMiddleware.RequireAuth())
	contacts.GET("", contactsHandler.ListContacts)
	contacts.POST("", middlewares.RequireJSON(), contactsHandler.CreateContact)
	contacts.PUT("/:id", middlewares.RequireJSON(), contactsHandler.UpdateContact)
	contacts.DELETE("/:id", contactsHandler.DeleteContact)

	return r
}
