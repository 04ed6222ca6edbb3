package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"Turing/handlers"
	"Turing/internal"
	"Turing/services"
)

func main() {
	cfg := internal.NewConfig()

	// Optional Postgres mirror
	var dbService *services.DatabaseService
	if cfg.HasPostgres() {
		var err error
		dbService, err = services.NewDatabaseService(cfg.PgHost, cfg.PgPort, cfg.PgUser, cfg.PgPassword, cfg.PgName)
		if err != nil {
			log.Printf("WARNING: Postgres mirror unavailable: %v", err)
			log.Printf("Continuing without the mirror")
			dbService = nil
		}
	}
	defer dbService.Close()

	// Content store backend
	var store internal.ContentStore
	var fileStore *internal.FileStore
	switch cfg.Storage {
	case "s3":
		s3Store, err := internal.NewS3Store(cfg.Bucket, cfg.Region)
		if err != nil {
			log.Fatalf("Failed to initialize S3 store: %v", err)
		}
		store = s3Store
	default:
		var err error
		fileStore, err = internal.NewFileStore(cfg.DocsRoot)
		if err != nil {
			log.Fatalf("Failed to initialize file store: %v", err)
		}
		store = fileStore
	}

	// Shared coordination services, one instance each, injected into
	// every session
	users := services.NewUserDirectory(dbService)
	docs := services.NewDocumentDirectory()
	pool := services.NewAddressPool()
	notifications := services.NewNotificationService(users)

	deps := handlers.Deps{
		Users:         users,
		Docs:          docs,
		Notifications: notifications,
		Store:         store,
		Pool:          pool,
		DB:            dbService,
	}

	userHandler := handlers.NewUserHandler(users)
	dirHandler := handlers.NewDirectoryHandler(dbService)

	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	r.HandleFunc("/v1/users", userHandler.SignUp).Methods("POST")
	r.HandleFunc("/v1/users", dirHandler.GetUsers).Methods("GET")
	r.HandleFunc("/v1/documents/{creator}", dirHandler.GetUserDocuments).Methods("GET")
	r.HandleFunc("/v1/documents/{creator}/{name}/permissions", dirHandler.GetDocumentPermissions).Methods("GET")
	r.Handle("/ws/session", handlers.NewSessionHandler(deps))
	r.Handle("/ws/notifications", handlers.NewNotificationHandler(deps))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Turing server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// wait for ctrl-C, then stop accepting and drain in-flight sessions
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	grace := time.Duration(internal.GetEnvInt("SHUTDOWN_GRACE_SECONDS", 3)) * time.Second
	log.Printf("Shutting down, waiting up to %s for open sessions...", grace)
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forcing termination: %v", err)
	}

	if cfg.CleanOnExit && fileStore != nil {
		log.Println("Deleting files...")
		if err := fileStore.RemoveAll(); err != nil {
			log.Printf("No files to delete: %v", err)
		}
	}
	log.Println("Server stopped")
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
