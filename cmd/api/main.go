package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fotoshare/gallery/internal/config"
	appMiddleware "github.com/fotoshare/gallery/internal/middleware"
	"github.com/fotoshare/gallery/internal/photo"
	"github.com/fotoshare/gallery/internal/storage"
)

func main() {
	cfg := config.Load()

	// The factory fails fast on unresolvable backend settings; the process
	// must not come up in an ambiguous storage-backend state.
	blob, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	store, err := photo.NewStore(cfg.MetadataPath)
	if err != nil {
		log.Fatalf("metadata load failed: %v", err)
	}

	// Wire dependencies: store + blob backend → service → handler
	photoSvc := photo.NewService(store, blob)
	photoHandler := photo.NewHandler(photoSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Local-backend blobs are served by this process; cloud blobs are
	// reached through signed URLs and never transit here.
	if local, ok := blob.(*storage.Local); ok {
		r.Route("/uploads", func(r chi.Router) {
			r.Use(appMiddleware.RequireToken(cfg.AccessToken))
			r.Get("/{key}", photo.ServeUploads(local.Root()))
		})
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RequireToken(cfg.AccessToken))

		r.Post("/photos", photoHandler.Upload)
		r.Get("/photos", photoHandler.List)
		r.Delete("/photos/{id}", photoHandler.Delete)
		r.Patch("/photos/{id}/category", photoHandler.UpdateCategory)
		r.Patch("/photos/{id}/people", photoHandler.UpdatePeople)
		r.Get("/stats", photoHandler.Stats)

		// Admin-only bulk wipe, double-gated: admin token plus the
		// confirmation literal in the request body.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireToken(cfg.AdminToken))
			r.Delete("/photos", photoHandler.WipeAll)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("gallery listening on :%s (mode=%s env=%s)", cfg.Port, cfg.StorageMode, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
