package http

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"slices"
	"time"

	"github.com/geocoder89/ciaan/internal/cache"
	"github.com/geocoder89/ciaan/internal/config"
	"github.com/geocoder89/ciaan/internal/http/handlers"
	"github.com/geocoder89/ciaan/internal/http/middlewares"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/geocoder89/ciaan/internal/store"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs; optional fields may be nil.
type Deps struct {
	Config    config.Config
	Store     *store.Store
	Tokens    SessionTokens
	Hasher    handlers.PasswordHasher
	FeedCache cache.Cache
	Prom      *observability.Prom
	Metrics   nethttp.Handler

	// ReadyChecks are pinged by /readyz in addition to the store.
	ReadyChecks map[string]func(ctx context.Context) error
}

// SessionTokens issues and verifies session tokens; *auth.Manager satisfies it.
type SessionTokens interface {
	middlewares.TokenVerifier
	handlers.TokenIssuer
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName(d.Config)))
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Config.IsProd()))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	// health
	checks := map[string]func(ctx context.Context) error{
		"store": d.Store.Ping,
	}
	for name, check := range d.ReadyChecks {
		checks[name] = check
	}
	h := handlers.NewHealthHandler(checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	requireAuth := authMW.RequireAuth()
	requireJSON := middlewares.RequireJSON()

	authHandler := handlers.NewAuthHandler(d.Store.Users, d.Hasher, d.Tokens, d.Store.Jobs, d.Config.IsProd())
	postsHandler := handlers.NewPostsHandler(d.Store.Posts, d.Store.Users, d.FeedCache, d.Prom)
	usersHandler := handlers.NewUsersHandler(d.Store.Users, d.Store.Posts)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	credentials := []gin.HandlerFunc{requireJSON}
	if d.Config.AuthRateLimitPerMin > 0 {
		rl := middlewares.NewRateLimiter(d.Config.AuthRateLimitPerMin, time.Minute)
		credentials = append([]gin.HandlerFunc{rl.RateLimiterMiddleware(middlewares.KeyByIP)}, credentials...)
	}
	authGroup.POST("/register", append(slices.Clip(credentials), authHandler.Register)...)
	authGroup.POST("/login", append(slices.Clip(credentials), authHandler.Login)...)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	api.GET("/posts", postsHandler.List)
	api.POST("/posts", requireAuth, requireJSON, postsHandler.Create)

	api.GET("/users/:id", usersHandler.Profile)
	api.GET("/search/users", usersHandler.Search)

	return r
}

func serviceName(cfg config.Config) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "ciaan-api"
}
