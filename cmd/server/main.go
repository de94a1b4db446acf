package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/peerdex/backend/internal/config"
	"github.com/peerdex/backend/internal/handlers"
	"github.com/peerdex/backend/internal/logging"
	appMiddleware "github.com/peerdex/backend/internal/middleware"
	"github.com/peerdex/backend/internal/services"
	"github.com/peerdex/backend/internal/storage"
)

func main() {
	ctx := context.Background()
	logger := logging.New("peerdex-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Error("store init failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	var avatars services.AvatarStore
	if cfg.StorageBucket != "" {
		gcsAvatars, err := services.NewGCSAvatarStore(ctx, cfg.StorageBucket, cfg.CredentialsFile)
		if err != nil {
			logger.Error("avatar store init failed", "bucket", cfg.StorageBucket, "error", err)
			os.Exit(1)
		}
		defer gcsAvatars.Close()
		avatars = gcsAvatars
	} else {
		logger.Warn("no STORAGE_BUCKET configured; avatar uploads disabled")
	}

	profileService := services.NewProfileService(store, avatars)
	contactService := services.NewContactService(store)

	userHandler := handlers.NewUserHandler(profileService, logger, cfg.RequestTimeout)
	contactHandler := handlers.NewContactHandler(contactService, logger, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(appMiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.AddUser)

			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Patch("/", userHandler.UpdateUser)

				r.Route("/contacts", func(r chi.Router) {
					r.Get("/", contactHandler.ListContacts)
					r.Post("/", contactHandler.AddContact)
					r.Delete("/{contactId}", contactHandler.RemoveContact)
				})
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := run(srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (storage.UserStore, error) {
	switch cfg.StoreDriver {
	case "firestore":
		return storage.NewFirestoreStore(ctx, cfg.FirebaseProjectID, cfg.CredentialsFile)
	case "mongo":
		return storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	case "file":
		return storage.NewFileStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// run starts the server and shuts it down gracefully on SIGINT/SIGTERM.
func run(srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
