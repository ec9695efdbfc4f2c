package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/locatory/config"
	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/handler"
	"github.com/Payphone-Digital/locatory/internal/middleware"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/repository"
	"github.com/Payphone-Digital/locatory/internal/router"
	"github.com/Payphone-Digital/locatory/internal/service"
	"github.com/Payphone-Digital/locatory/pkg/cache"
	"github.com/Payphone-Digital/locatory/pkg/circuit"
	"github.com/Payphone-Digital/locatory/pkg/database"
	"github.com/Payphone-Digital/locatory/pkg/geo"
	"github.com/Payphone-Digital/locatory/pkg/health"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/metrics"
	"github.com/Payphone-Digital/locatory/pkg/notify"
	"github.com/Payphone-Digital/locatory/pkg/pool"
	"github.com/Payphone-Digital/locatory/pkg/redis"
	"github.com/Payphone-Digital/locatory/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.GetLogger()
	log.Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Relational store: users and their notifications
	db, err := database.NewPostgresDB(config)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	if err := database.Seed(db); err != nil {
		log.Error("Failed to seed database", zap.Error(err))
	} else {
		log.Info("Database seeded successfully")
	}

	// Document store: places, reviews and reactions
	mongoClient, err := database.NewMongoClient(ctx, config)
	if err != nil {
		log.Fatal("Failed to connect to mongo", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	mongoDB := mongoClient.Database(config.Mongo.Database)
	if err := database.EnsureMongoIndexes(ctx, mongoDB); err != nil {
		log.Fatal("Failed to create mongo indexes", zap.Error(err))
	}

	// Cache: redis when reachable, in-memory otherwise
	var (
		cacheStore service.CacheStore
		cacheStats handler.StatsProvider
		redisPing  func(context.Context) error
	)
	if config.Redis.Enabled {
		redisClient, err := redis.NewClient(config)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheStore, cacheStats, redisPing = redisClient, redisClient, redisClient.Ping
		}
	}
	if cacheStore == nil {
		memory := cache.NewCache(time.Minute)
		defer memory.Close()
		cacheStore = memory
	}
	cacheService := service.NewCacheService(cacheStore, config.Redis.PlaceTTL)

	// Geocoder
	geocoderURL := config.Geocoder.BaseURL
	if geocoderURL == "" {
		geocoderURL = geo.DefaultMapQuestURL
	}
	upstreams := pool.NewConnectionPool(pool.DefaultPoolConfig(), log)
	defer upstreams.CloseAllConnections()

	breaker := circuit.NewBreaker(config.Geocoder.Provider, circuit.Config{
		Threshold:        config.Geocoder.BreakerThreshold,
		Timeout:          config.Geocoder.BreakerTimeout,
		SuccessThreshold: 1,
		MaxHalfOpen:      1,
		OnStateChange:    metrics.ObserveBreaker,
	}, log)
	geocoder := geo.NewBreakerGeocoder(
		metrics.InstrumentGeocoder(geo.NewMapQuestGeocoder(geo.MapQuestConfig{
			BaseURL:    geocoderURL,
			APIKey:     config.Geocoder.APIKey,
			Timeout:    config.Geocoder.Timeout,
			HTTPClient: upstreams.GetHTTPClient(geocoderURL),
		}), config.Geocoder.Provider),
		breaker,
	)
	locator := geo.NewResolver(geocoder)

	renderer, err := notify.NewRenderer(config.Notification.MessageTemplate)
	if err != nil {
		log.Fatal("Invalid notification template", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	placeRepo := repository.NewPlaceRepository(mongoDB)
	reviewRepo := repository.NewReviewRepository(mongoDB)
	reactionRepo := repository.NewReactionRepository(mongoDB)

	// Services
	jwtService := service.NewJWTService(config.JWT.Secret, config.JWT.ExpirationTime)
	userService := service.NewUserService(userRepo, jwtService, locator, config.JWT.RefreshDuration)
	reviewService := service.NewReviewService(reviewRepo, placeRepo, userRepo, reactionRepo, cacheService)
	placeService := service.NewPlaceService(placeRepo, reviewService, locator, cacheService, config.Redis.PlaceTTL)
	reactionService := service.NewReactionService(reactionRepo, reviewRepo)
	notificationService := service.NewNotificationService(userRepo, reviewRepo, placeRepo, renderer, cacheService, config.Notification.MaxStored)

	// Health
	monitor := health.NewMonitor(30*time.Second, log)
	monitor.RegisterPing("postgres", true, func(ctx context.Context) error { return database.PingPostgres(ctx, db) })
	monitor.RegisterPing("mongo", true, func(ctx context.Context) error { return database.PingMongo(ctx, mongoClient) })
	monitor.RegisterPing(config.Geocoder.Provider, false, func(context.Context) error {
		return upstreams.LastError(pool.HostOf(geocoderURL))
	})
	if redisPing != nil {
		monitor.RegisterPing("redis", false, redisPing)
	}
	monitor.Start()
	defer monitor.Stop()

	validation.RegisterJSONTagNames()

	handlers := router.Handlers{
		Auth: handler.NewAuthHandler(userService, notificationService, handler.CookieConfig{
			Name:   config.JWT.CookieName,
			Secure: config.JWT.CookieSecure,
		}),
		Place:   handler.NewPlaceHandler(placeService),
		Review:  handler.NewReviewHandler(reviewService, notificationService),
		Like:    handler.NewReactionHandler(reactionService, model.ReactionLike),
		Dislike: handler.NewReactionHandler(reactionService, model.ReactionDislike),
		Health:  handler.NewHealthHandler(monitor),
		Cache:   handler.NewCacheHandler(cacheService, cacheStats),
	}
	finders := router.Finders{
		Users:    repository.NewUserFinder(db),
		Places:   placeRepo.Finder(),
		Reviews:  reviewRepo.Finder(),
		Likes:    reactionRepo.Finder(model.ReactionLike),
		Dislikes: reactionRepo.Finder(model.ReactionDislike),

		PlaceReviews: reviewRepo.PlaceFinder,
	}
	jwtMiddleware := middleware.NewJWTMiddleware(userService, config.JWT.CookieName)

	engine := router.NewRouter(handlers, finders, jwtMiddleware, config).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("port", config.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err), zap.String("port", config.App.Port))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.App.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
