package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/potatix/backend/docs"
	authMw "github.com/potatix/backend/internal/auth/middleware"
	authService "github.com/potatix/backend/internal/auth/service"
	"github.com/potatix/backend/internal/cache"
	"github.com/potatix/backend/internal/config"
	"github.com/potatix/backend/internal/handlers"
	"github.com/potatix/backend/internal/logger"
	"github.com/potatix/backend/internal/middlewares"
	"github.com/potatix/backend/internal/repositories"
	"github.com/potatix/backend/internal/services"
	"github.com/potatix/backend/internal/video"
)

// @title Potatix Course API
// @version 1.0
// @description API for managing course content hierarchies

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Potatix Course Service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis for the course page cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := authService.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize external clients
	pageCache := cache.NewCoursePageCache(redisClient, cfg.Redis.PageTTL)
	videoHost := video.NewClient(cfg.VideoHost.BaseURL, cfg.VideoHost.TokenID, cfg.VideoHost.TokenSecret)

	// Initialize repositories
	courseRepo := repositories.NewCourseRepository(db)
	moduleRepo := repositories.NewModuleRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)

	// Initialize services
	courseService := services.NewCourseService(courseRepo, moduleRepo, lessonRepo, videoHost, pageCache, logger.Logger)
	contentService := services.NewContentService(courseRepo, moduleRepo, lessonRepo, videoHost, pageCache, logger.Logger)

	// Initialize handlers
	courseHandler := handlers.NewCoursesHandler(courseService, logger.Logger)
	contentHandler := handlers.NewContentHandler(contentService, logger.Logger)
	publicHandler := handlers.NewPublicHandler(courseService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := authMw.AuthMiddleware(tokenGenerator)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(1 * 1024 * 1024)) // 1MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public course page, no authentication
		publicHandler.RegisterRoutes(r)
		// Management routes require a valid access token
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			courseHandler.RegisterRoutes(r)
			contentHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "course_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
