package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spscricket/player-service/internal/clock"
	"github.com/spscricket/player-service/internal/handler"
	"github.com/spscricket/player-service/internal/infra"
	"github.com/spscricket/player-service/internal/repository"
	"github.com/spscricket/player-service/internal/service"
)

// Database is what the router needs from the connection pool.
// *pgxpool.Pool satisfies it.
type Database interface {
	repository.TxStarter
	infra.Pinger
}

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	DB     Database
	Logger *slog.Logger
	Clock  clock.Clock
	// Images is nil when image storage is not configured.
	Images             service.ImageSigner
	CORSAllowedOrigins string
	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter handler.RateLimiter
}

// NewPlayerService wires the player service onto db.
func NewPlayerService(deps RouterDeps) *service.PlayerService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	return service.NewPlayerService(
		repository.NewTransactor(deps.DB),
		repository.NewPlayerRepository(),
		repository.NewOutboxRepository(),
		clk,
		deps.Images,
		deps.Logger,
	)
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	playerHandler := handler.NewPlayerHandler(NewPlayerService(deps))

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(deps.DB))

	var players http.Handler = playerHandler.Routes()
	if deps.RateLimiter != nil {
		players = handler.RateLimit(deps.RateLimiter, logger)(players)
	}
	r.Mount("/api/players", players)

	return r
}
