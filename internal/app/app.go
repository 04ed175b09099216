// Package app wires configuration, storage, services, and transports into
// runnable entrypoints.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/explorerhq/explorer-backend/internal/adapter/postgres"
	collectionrepo "github.com/explorerhq/explorer-backend/internal/adapter/postgres/collection"
	reportrepo "github.com/explorerhq/explorer-backend/internal/adapter/postgres/report"
	topicrepo "github.com/explorerhq/explorer-backend/internal/adapter/postgres/topic"
	userrepo "github.com/explorerhq/explorer-backend/internal/adapter/postgres/user"
	"github.com/explorerhq/explorer-backend/internal/config"
	collectionsvc "github.com/explorerhq/explorer-backend/internal/service/collection"
	reportsvc "github.com/explorerhq/explorer-backend/internal/service/report"
	topicsvc "github.com/explorerhq/explorer-backend/internal/service/topic"
	usersvc "github.com/explorerhq/explorer-backend/internal/service/user"
	"github.com/explorerhq/explorer-backend/internal/storage"
	"github.com/explorerhq/explorer-backend/internal/transport/middleware"
	"github.com/explorerhq/explorer-backend/internal/transport/rest"
)

// Deps holds everything both entrypoints (HTTP server, MCP stdio) need.
type Deps struct {
	Cfg         *config.Config
	Log         *slog.Logger
	Pool        *pgxpool.Pool
	Users       *usersvc.Service
	Collections *collectionsvc.Service
	Topics      *topicsvc.Service
	Reports     *reportsvc.Service
}

// Setup loads configuration, connects to PostgreSQL, runs migrations, and
// wires repositories, the artifact store, and services.
func Setup(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	users := userrepo.New(pool)
	collections := collectionrepo.New(pool)
	topics := topicrepo.New(pool)
	reports := reportrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	userSvc := usersvc.NewService(logger, users, cfg.Storage.DefaultUsername)
	topicSvc := topicsvc.NewService(logger, topics, collections, reports, tx)
	collectionSvc := collectionsvc.NewService(logger, collections, topics, tx)

	var store storage.Store
	switch {
	case cfg.Storage.Disabled:
		logger.Warn("report persistence disabled")
	case cfg.Storage.Mode == config.StorageModeFile:
		store = storage.NewFileStore(logger, cfg.Storage.BaseDir, cfg.Storage.DefaultUserEmail, cfg.Storage.DefaultUsername)
	default:
		store = storage.NewDualStore(logger, userSvc, topicSvc, reports, tx,
			cfg.Storage.BaseDir, cfg.Storage.DefaultUserEmail, cfg.Storage.DefaultUsername)
	}

	reportSvc := reportsvc.NewService(logger, reports, store)

	return &Deps{
		Cfg:         cfg,
		Log:         logger,
		Pool:        pool,
		Users:       userSvc,
		Collections: collectionSvc,
		Topics:      topicSvc,
		Reports:     reportSvc,
	}, nil
}

// Close releases held resources.
func (d *Deps) Close() {
	d.Pool.Close()
}

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails.
func Run(ctx context.Context) error {
	deps, err := Setup(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	cfg := deps.Cfg
	logger := deps.Log

	ident := rest.NewIdentity(deps.Users, cfg.Storage.DefaultUserEmail, cfg.Storage.DefaultUsername)
	mux := rest.NewRouter(
		rest.NewHealthHandler(deps.Pool, BuildVersion()),
		rest.NewCollectionHandler(deps.Collections, ident, logger),
		rest.NewTopicHandler(deps.Topics, ident, logger),
		rest.NewReportHandler(deps.Reports, ident, logger),
	)

	mws := []middleware.Middleware{
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(time.Minute)
		defer limiter.Stop()
		mws = append(mws, limiter.Limit(cfg.Server.RateLimitPerMinute))
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      middleware.Chain(mws...)(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("starting http server",
		slog.String("addr", srv.Addr),
		slog.String("version", BuildVersion()),
		slog.String("storage_mode", cfg.Storage.Mode),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
