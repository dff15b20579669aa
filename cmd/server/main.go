package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anufa/anufa-backend/config"
	"github.com/anufa/anufa-backend/internal/app/controller"
	"github.com/anufa/anufa-backend/internal/app/repository"
	"github.com/anufa/anufa-backend/internal/app/service"
	"github.com/anufa/anufa-backend/internal/db"
	"github.com/anufa/anufa-backend/internal/middleware"
	"github.com/anufa/anufa-backend/internal/profile"
	"github.com/anufa/anufa-backend/internal/router"
	"github.com/anufa/anufa-backend/internal/storage"
	"github.com/anufa/anufa-backend/internal/websocket"
	"github.com/anufa/anufa-backend/pkg/logger"
	redispkg "github.com/anufa/anufa-backend/pkg/redis"
)

const rateLimiterSweepInterval = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	format := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		format = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      format,
		EnableColor: format == "console",
	})

	logger.Info("Starting Anufa Backend Server", map[string]interface{}{
		"environment":   cfg.Server.Environment,
		"port":          cfg.Server.Port,
		"log_level":     logLevel,
		"profile_store": cfg.Profile.Store,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Redis backs token revocation and, optionally, the profile store.
	// Interface-typed so a disabled Redis leaves them nil rather than a nil pointer.
	var revoker service.TokenRevoker
	var revocations middleware.RevocationChecker
	if cfg.Redis.Enabled {
		if err := redispkg.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer func() {
			if err := redispkg.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		blacklist := redispkg.NewTokenBlacklist(redispkg.GetClient())
		revoker = blacklist
		revocations = blacklist
	} else {
		logger.Warn("Redis disabled: logout and refresh rotation will not revoke tokens")
	}

	profiles, err := openProfileStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open profile store", err)
	}
	defer func() {
		if err := profiles.Close(); err != nil {
			logger.Error("Failed to close profile store", err)
		}
	}()

	seed := cfg.Profile.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		revoker,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, db.GetDB(), hub)
	personalizationService := service.NewPersonalizationService(
		profiles,
		userRepo,
		productRepo,
		service.NewTextAnalyzer(),
		rand.New(rand.NewSource(seed)),
	)
	pricingService := service.NewPricingService(productService, personalizationService)
	if n, err := personalizationService.CountProfiles(ctx); err != nil {
		logger.Warn("Failed to count stored profiles", map[string]interface{}{
			"store": cfg.Profile.Store,
			"error": err.Error(),
		})
	} else {
		logger.Info("Profile store ready", map[string]interface{}{
			"store":    cfg.Profile.Store,
			"profiles": n,
		})
	}
	recommendationService := service.NewRecommendationService(productRepo)

	// Initialize controllers
	controllers := router.Controllers{
		Auth:            controller.NewAuthController(authService),
		Product:         controller.NewProductController(productService),
		Cart:            controller.NewCartController(cartService),
		Order:           controller.NewOrderController(orderService),
		Personalization: controller.NewPersonalizationController(personalizationService, pricingService),
		Recommendation:  controller.NewRecommendationController(recommendationService),
		Upload:          controller.NewUploadController(storage.NewS3Storage(ctx, &cfg.S3)),
		WS:              controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revocations)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go sweepRateLimiter(ctx, rateLimiter)

	engine := router.NewRouter(controllers, authMiddleware, rateLimiter, cfg).Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}

	logger.Info("Server stopped successfully")
}

func openProfileStore(cfg *config.Config) (profile.Store, error) {
	switch cfg.Profile.Store {
	case "redis":
		return profile.NewRedisStore(redispkg.GetClient(), profile.DefaultBreakerConfig()), nil
	case "badger":
		return profile.OpenBadgerStore(cfg.Profile.BadgerDir)
	default:
		return profile.NewMemoryStore(), nil
	}
}

func sweepRateLimiter(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(rateLimiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				logger.Debug("Evicted idle rate limiters", map[string]interface{}{
					"count": n,
				})
			}
		}
	}
}
