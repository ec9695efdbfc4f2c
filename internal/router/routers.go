package router

import (
	"net/http"
	"time"

	"github.com/Payphone-Digital/locatory/config"
	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/handler"
	"github.com/Payphone-Digital/locatory/internal/middleware"
	"github.com/Payphone-Digital/locatory/pkg/metrics"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth    *handler.AuthHandler
	Place   *handler.PlaceHandler
	Review  *handler.ReviewHandler
	Like    *handler.ReactionHandler
	Dislike *handler.ReactionHandler
	Health  *handler.HealthHandler
	Cache   *handler.CacheHandler
}

// Finders are the collections served through advanced results.
type Finders struct {
	Users    query.Finder[map[string]any]
	Places   query.Finder[bson.M]
	Reviews  query.Finder[bson.M]
	Likes    query.Finder[bson.M]
	Dislikes query.Finder[bson.M]

	// PlaceReviews narrows the review listing to one place.
	PlaceReviews func(placeID bson.ObjectID) query.Finder[bson.M]
}

type Router struct {
	handlers Handlers
	finders  Finders
	jwtMw    *middleware.JWTMiddleware
	Config   *config.Config
}

func NewRouter(handlers Handlers, finders Finders, jwtMw *middleware.JWTMiddleware, cfg *config.Config) *Router {
	return &Router{
		handlers: handlers,
		finders:  finders,
		jwtMw:    jwtMw,
		Config:   cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestContext())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.SecurityLoggingMiddleware())
	router.Use(middleware.CORS(r.Config.App.AllowedOrigins))
	router.Use(middleware.ErrorHandler())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, constants.BuildErrorResponse(constants.MsgNotFound))
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", r.handlers.Health.HealthCheck)
		api.GET("/health/live", r.handlers.Health.BasicHealth)

		api.Use(middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second))
		api.Use(middleware.RequestTimeout(r.Config.App.Timeout))

		r.authRoutes(api)
		r.userRoutes(api)
		r.placeRoutes(api)
		r.reviewRoutes(api)
		r.reactionRoutes(api)
		r.cacheRoutes(api)
	}

	return router
}

func (r *Router) cacheRoutes(rg *gin.RouterGroup) {
	cache := rg.Group("/cache")
	cache.Use(r.jwtMw.RequireAuth(), r.jwtMw.RequireRole(constants.RoleAdmin))
	{
		cache.GET("/stats", r.handlers.Cache.GetCacheStats)
		cache.POST("/invalidate", r.handlers.Cache.InvalidateCache)
	}
}
