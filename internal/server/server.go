package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/tweeter-be/internal/auth"
	"github.com/hongminglow/tweeter-be/internal/config"
	"github.com/hongminglow/tweeter-be/internal/http/handlers"
	"github.com/hongminglow/tweeter-be/internal/http/respond"
	"github.com/hongminglow/tweeter-be/internal/ids"
	"github.com/hongminglow/tweeter-be/internal/metrics"
	"github.com/hongminglow/tweeter-be/internal/middleware"
	"github.com/hongminglow/tweeter-be/internal/realtime"
	"github.com/hongminglow/tweeter-be/internal/storage"
	"github.com/hongminglow/tweeter-be/internal/tweets"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
	hub   *realtime.Hub
	log   *slog.Logger
}

// New wires up services, middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	idGen := ids.NewULIDGenerator()
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	})
	authSvc := auth.NewService(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens, idGen)

	policy := middleware.NewOriginPolicy(cfg.CORSOrigins)
	hub := realtime.NewHub(authSvc, policy.CheckOrigin, logger)
	tweetSvc := tweets.NewService(store, hub, idGen)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(authSvc).Register(mux)
	handlers.NewTweetHandler(tweetSvc, authSvc).Register(mux)
	mux.Handle("GET /ws", hub)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})

	handler := middleware.CORS(policy, middleware.Logging(logger, mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, hub: hub, log: logger}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.inner.Addr)
	return s.inner.ListenAndServe()
}

// Shutdown stops accepting requests, disconnects realtime subscribers and
// waits for in-flight requests up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.inner.Shutdown(ctx)
	s.hub.Close()
	return err
}
