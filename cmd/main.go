package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/config"
	"vaultdrive/internal/crypto"
	"vaultdrive/internal/handler"
	"vaultdrive/internal/repository"
	"vaultdrive/internal/service"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %v", maxAttempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func main() {
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := connectWithRetry(appConfig.Database.GetDSN(), 5, time.Second*5)
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// One codec for the process lifetime, injected everywhere. A bad key
	// must stop the process here, not surface per request.
	codec, err := crypto.NewCodec(appConfig.Security.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize encryption: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewFileRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	lockoutRepo := repository.NewLockoutRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	defer auditService.Close()

	authenticator := auth.NewAuthenticator(userRepo, lockoutRepo, appConfig.Security.JWTSecret)
	permissionService := service.NewPermissionService(fileRepo)
	quotaService := service.NewQuotaService(quotaRepo)
	fileService := service.NewFileService(
		fileRepo,
		quotaRepo,
		permissionService,
		codec,
		auditService,
		appConfig.Storage.AllowedExtensionSet(),
		appConfig.Storage.MaxUploadBytes,
	)
	shareService := service.NewShareService(fileRepo, userRepo, permissionService, auditService)

	authHandler := handler.NewAuthHandler(authenticator, auditService)
	fileHandler := handler.NewFileHandler(authenticator, fileService)
	shareHandler := handler.NewShareHandler(authenticator, shareService)
	trashHandler := handler.NewTrashHandler(authenticator, fileService)
	quotaHandler := handler.NewQuotaHandler(authenticator, quotaService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/files", func(r chi.Router) {
			r.Post("/", fileHandler.UploadFile)
			r.Get("/", fileHandler.ListFiles)
			r.Get("/shared-by-me", fileHandler.ListSharedByMe)
			r.Get("/shared-with-me", fileHandler.ListSharedToMe)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Get("/download", fileHandler.DownloadFile)
				r.Get("/view", fileHandler.ViewFile)
				r.Put("/content", fileHandler.SaveFile)
				r.Delete("/", fileHandler.DeleteFile)
				r.Post("/restore", fileHandler.RestoreFile)
				r.Delete("/permanent", fileHandler.PurgeFile)
				r.Post("/share", shareHandler.ShareFile)
			})
		})

		r.Route("/trash", func(r chi.Router) {
			r.Get("/", trashHandler.GetTrashItems)
			r.Post("/empty", trashHandler.EmptyTrash)
		})

		r.Get("/quota", quotaHandler.GetQuotaInfo)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Background sweep of binned files past their retention.
	stop := make(chan struct{})
	retention := appConfig.Storage.TrashRetentionDuration()
	cleanupTicker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-cleanupTicker.C:
				if err := fileService.CleanupExpired(context.Background(), retention); err != nil {
					log.Printf("Error during trash cleanup: %v", err)
				}
			case <-stop:
				cleanupTicker.Stop()
				return
			}
		}
	}()

	<-quit
	close(stop)
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Server exited properly")
}
