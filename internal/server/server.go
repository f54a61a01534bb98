package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/judgelink/apiserver/config"
	"github.com/judgelink/apiserver/internal/db"
	"github.com/judgelink/apiserver/internal/handlers"
	"github.com/judgelink/apiserver/internal/mq"
	"github.com/judgelink/apiserver/internal/services"
	"github.com/judgelink/apiserver/internal/storage"
	"github.com/judgelink/apiserver/internal/store"
	"github.com/judgelink/apiserver/internal/upstream"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.Events
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cache := store.NewContestCacheRepository(dbConn)
	resolver := services.NewResolver(
		cache,
		upstream.NewCodeforcesClient(cfg.Upstream),
		upstream.NewAtCoderClient(cfg.Upstream),
	)
	builder := services.NewResultBuilder(resolver)
	preloader := services.NewPreloader(cache)

	events, err := newEvents(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	dumps, err := newDumpStore(ctx, cfg.Storage)
	if err != nil {
		_ = events.Close()
		_ = dbConn.Close()
		return nil, err
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = events.Close()
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.QueryRouter(router, builder, events)
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, preloader, dumps, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	_ = s.events.Close()
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// newEvents selects the query-event broker. Backend "none" disables
// publishing; handlers treat a nil *mq.Events as a no-op.
func newEvents(ctx context.Context, cfg config.MQConfig) (*mq.Events, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.NewEvents(client), nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.NewEvents(client), nil
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
}

// newDumpStore selects the object storage backend for bulk dumps. An
// unconfigured backend yields nil; the admin preload endpoint then only
// accepts dumps in the request body.
func newDumpStore(ctx context.Context, cfg config.StorageConfig) (storage.DumpStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "minio":
		if strings.TrimSpace(cfg.Minio.Endpoint) == "" {
			return nil, nil
		}
		return storage.NewMinioClient(cfg.Minio)
	case "gcs":
		if strings.TrimSpace(cfg.GCS.Bucket) == "" {
			return nil, nil
		}
		return storage.NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, nil
	}
}
