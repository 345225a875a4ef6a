package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/jakobkordez/wmm-reborn/internal/auth/http"
	authrepo "github.com/jakobkordez/wmm-reborn/internal/auth/repository"
	authservice "github.com/jakobkordez/wmm-reborn/internal/auth/service"
	"github.com/jakobkordez/wmm-reborn/internal/common/clock"
	"github.com/jakobkordez/wmm-reborn/internal/common/config"
	"github.com/jakobkordez/wmm-reborn/internal/common/constants"
	commoncrypto "github.com/jakobkordez/wmm-reborn/internal/common/crypto"
	"github.com/jakobkordez/wmm-reborn/internal/common/db"
	commonhttp "github.com/jakobkordez/wmm-reborn/internal/common/http"
	"github.com/jakobkordez/wmm-reborn/internal/common/jwtverify"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	relationhttp "github.com/jakobkordez/wmm-reborn/internal/relation/http"
	relationrepo "github.com/jakobkordez/wmm-reborn/internal/relation/repository"
	relationservice "github.com/jakobkordez/wmm-reborn/internal/relation/service"
	userhttp "github.com/jakobkordez/wmm-reborn/internal/user/http"
	userrepo "github.com/jakobkordez/wmm-reborn/internal/user/repository"
	userservice "github.com/jakobkordez/wmm-reborn/internal/user/service"
)

const ServiceName = "wmm-reborn"

type App struct {
	Config           config.AuthConfig
	Log              *logger.Logger
	Pool             *pgxpool.Pool
	Clock            clock.Clock
	RefreshTokenRepo *authrepo.PgRefreshTokenRepository
	Handler          http.Handler
}

// NewApp connects to the database, ensures the schema exists and assembles the
// HTTP handler. The pool and the metrics goroutine live until ctx is cancelled
// and Close is called.
func NewApp(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (*App, error) {
	pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	if err := db.EnsureSchema(ctx, pool, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

	clk := clock.NewRealClock()
	users := userrepo.NewPgRepository(pool)
	refreshTokens := authrepo.NewPgRefreshTokenRepository(pool, db.NewTxManager(pool))
	relations := relationrepo.NewPgRepository(pool)

	tokens, err := authservice.NewTokenService(authservice.TokenConfig{
		AccessSecret:            cfg.AccessTokenSecret,
		RefreshSecret:           cfg.RefreshTokenSecret,
		AccessTTL:               cfg.AccessTokenTTL,
		RefreshTTL:              cfg.RefreshTokenTTL,
		MaxRefreshTokensPerUser: cfg.MaxRefreshTokensPerUser,
	}, refreshTokens, commoncrypto.NewUUIDGenerator(), clk, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	hasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost, cfg.HashWorkers)
	auth := authservice.NewAuthService(users, tokens, hasher, log)
	requireAuth := jwtverify.Middleware(tokens, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", commonhttp.HealthHandler(log, pool))
	mux.Handle("GET /metrics", promhttp.Handler())
	authhttp.NewHandler(auth, cfg.RequestTimeout, log).RegisterRoutes(mux, requireAuth)
	userhttp.NewHandler(userservice.NewProfileService(users), cfg.RequestTimeout, log).RegisterRoutes(mux, requireAuth)
	relationhttp.NewHandler(relationservice.NewRelationService(relations), cfg.RequestTimeout, log).RegisterRoutes(mux, requireAuth)

	return &App{
		Config:           cfg,
		Log:              log,
		Pool:             pool,
		Clock:            clk,
		RefreshTokenRepo: refreshTokens,
		Handler:          commonhttp.BuildBaseHandler(log, mux),
	}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}
