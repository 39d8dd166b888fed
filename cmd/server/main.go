package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"

	"github.com/facilityinspect/server/internal/config"
	"github.com/facilityinspect/server/internal/handlers"
	custommw "github.com/facilityinspect/server/internal/middleware"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
	"github.com/facilityinspect/server/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize telemetry
	telemetry, err := observability.Initialize(ctx, observability.Config{
		ServiceName:    "facilityinspect-server",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	// Initialize database
	var db *sql.DB
	if cfg.UsePostgres() {
		log.Println("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
	} else {
		log.Println("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	tdb, err := observability.NewTraceDB(db)
	if err != nil {
		log.Fatalf("Failed to wrap database handle: %v", err)
	}

	// Repositories
	users := repository.NewUserRepository(tdb)
	inspections := repository.NewInspectionRepository(tdb)
	items := repository.NewChecklistItemRepository(tdb)
	responses := repository.NewResponseRepository(tdb)
	deficiencies := repository.NewDeficiencyRepository(tdb)
	tasks := repository.NewTaskRepository(tdb)
	schedules := repository.NewScheduleRepository(tdb)
	reportConfigs := repository.NewReportConfigRepository(tdb)

	// Blob storage
	var blobs services.BlobStore
	switch cfg.BlobStorage.Driver {
	case "s3":
		blobs, err = services.NewS3BlobStore(ctx, services.S3Config{
			Region:    cfg.BlobStorage.S3.Region,
			Bucket:    cfg.BlobStorage.S3.Bucket,
			Endpoint:  cfg.BlobStorage.S3.Endpoint,
			PathStyle: cfg.BlobStorage.S3.PathStyle,
		})
	default:
		blobs, err = services.NewLocalBlobStore(cfg.BlobStorage.BasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	// Draft cache, Redis-backed when an address is configured
	var kv services.KVStore
	if cfg.Drafts.RedisAddr != "" {
		log.Printf("Using Redis draft cache at %s", cfg.Drafts.RedisAddr)
		kv = services.NewRedisKVStore(redis.NewClient(&redis.Options{Addr: cfg.Drafts.RedisAddr}))
	} else {
		kv = services.NewMemoryKVStore()
	}
	cache := services.NewDraftCache(kv, time.Duration(cfg.Drafts.CacheTTLMinutes)*time.Minute)

	// Services
	drafts := services.NewDraftManager(
		inspections, items, responses, cache,
		cfg.Drafts.SpoolDir,
		time.Duration(cfg.Drafts.QuietPeriodSeconds)*time.Second,
	)

	hub := services.NewWebSocketHub()
	go hub.Run()

	notifier := services.NewCompletionNotifier(cfg.Notifications.WebhookURL, hub)
	builder := services.NewReportBuilder(inspections, deficiencies)
	reports := services.NewReportService(reportConfigs, builder)

	completion := services.NewCompletionService(
		inspections, responses, items, deficiencies, tasks,
		services.SignalFanout{notifier, reports},
	)
	scheduleSvc := services.NewScheduleService(schedules)
	pipeline := services.NewPhotoPipeline(cfg.Photos.MaxDimension, cfg.Photos.Quality)

	businessMetrics, err := observability.NewBusinessMetrics()
	if err != nil {
		log.Fatalf("Failed to create business metrics: %v", err)
	}
	completion.SetMetrics(businessMetrics)
	drafts.SetMetrics(businessMetrics)

	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Fatalf("Failed to create HTTP metrics: %v", err)
	}

	// Handlers
	inspectionHandler := handlers.NewInspectionHandler(inspections, items, deficiencies, tasks, drafts, completion)
	draftHandler := handlers.NewDraftHandler(inspections, drafts, businessMetrics)
	photoHandler := handlers.NewPhotoHandler(inspections, drafts, pipeline, blobs, businessMetrics)
	scheduleHandler := handlers.NewScheduleHandler(scheduleSvc)
	reportHandler := handlers.NewReportHandler(reportConfigs, reports, builder)
	wsHandler := handlers.NewWebSocketHandler(hub)
	userHandler := handlers.NewUserHandler(users)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware("facilityinspect-server"))
	r.Use(observability.MetricsMiddleware(httpMetrics))
	r.Use(custommw.UserAPIKeyAuth(users, cfg.Security.APIKeyHeader, []string{
		"/health", "/api/health", "/ws",
	}))

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)
	r.Get("/ws", wsHandler.HandleConnection)

	r.Route("/api/inspections", func(r chi.Router) {
		r.Post("/", inspectionHandler.Start)
		r.Route("/{inspectionID}", func(r chi.Router) {
			r.Get("/", inspectionHandler.Get)
			r.Post("/complete", inspectionHandler.Complete)
			r.Post("/corrections", inspectionHandler.Corrections)

			r.Get("/draft", draftHandler.State)
			r.Post("/draft/answers", draftHandler.Answer)
			r.Post("/draft/sync", draftHandler.Sync)

			r.Route("/items/{itemID}/photos", func(r chi.Router) {
				r.Post("/", photoHandler.Upload)
				r.Delete("/", photoHandler.Remove)
			})
		})
	})

	r.Get("/api/photos", photoHandler.Download)

	r.Route("/api/schedules", func(r chi.Router) {
		r.Get("/due", scheduleHandler.ListDue)
		r.With(custommw.RequireAdmin).Post("/", scheduleHandler.Create)
		r.Route("/{scheduleID}", func(r chi.Router) {
			r.Get("/", scheduleHandler.Get)
			r.With(custommw.RequireAdmin).Put("/", scheduleHandler.Update)
			r.With(custommw.RequireAdmin).Post("/trigger", scheduleHandler.Trigger)
		})
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/due", reportHandler.ListDue)
		r.With(custommw.RequireAdmin).Post("/configs", reportHandler.CreateConfig)
		r.With(custommw.RequireAdmin).Put("/configs/{configID}", reportHandler.UpdateConfig)
		r.With(custommw.RequireAdmin).Post("/configs/{configID}/sent", reportHandler.MarkSent)
	})

	r.With(custommw.RequireAdmin).Post("/api/users", userHandler.Create)

	r.Route("/api/buildings/{buildingID}", func(r chi.Router) {
		r.Get("/inspections", inspectionHandler.ListForBuilding)
		r.Get("/summary.xlsx", reportHandler.BuildingSummary)
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer for photo uploads
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Facility Inspect Server starting on %s", cfg.ServerAddress)
		log.Printf("Blob storage driver: %s", cfg.BlobStorage.Driver)
		log.Printf("Draft spool dir: %s", cfg.Drafts.SpoolDir)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Flush open drafts before the process exits
	drafts.CloseAll(shutdownCtx)

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.Printf("Telemetry shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
