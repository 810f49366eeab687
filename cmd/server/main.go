// @title                       FINT API
// @version                     1.0
// @description                 Personal finance tracker: users, bearer sessions and owner-scoped transactions.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/fint/finance-tracker/internal/api"
	"github.com/fint/finance-tracker/internal/api/handler"
	"github.com/fint/finance-tracker/internal/core/ports"
	"github.com/fint/finance-tracker/internal/core/service"
	"github.com/fint/finance-tracker/internal/infrastructure/config"
	mongostore "github.com/fint/finance-tracker/internal/infrastructure/db/mongo"
	redisstore "github.com/fint/finance-tracker/internal/infrastructure/db/redis"
	sqlitestore "github.com/fint/finance-tracker/internal/infrastructure/db/sqlite"
	"github.com/fint/finance-tracker/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// stores is the storage backend selected by STORAGE_DRIVER.
type stores struct {
	users        ports.UserRepository
	transactions ports.TransactionRepository
	checks       map[string]handler.CheckFunc
	close        func(ctx context.Context) error
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{Service: "fint"})
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "fint",
		Env:     cfg.Env,
	})

	log := logger.Get()
	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	var idempotency ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		idempotency = redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		st.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis idempotency store enabled")
	}

	authService := service.NewAuthService(st.users, service.AuthConfig{
		TokenSecret: cfg.Auth.TokenSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		BcryptCost:  cfg.Auth.BcryptCost,
	}, log)
	txService := service.NewTransactionService(st.transactions, idempotency, log)

	e := api.NewRouter(api.Deps{
		Auth:         authService,
		Transactions: txService,
		Readiness:    st.checks,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage.Driver).Msg("starting fint server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb store ready")
		return &stores{
			users:        mongostore.NewUserRepository(db),
			transactions: mongostore.NewTransactionRepository(db),
			checks: map[string]handler.CheckFunc{
				"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			},
			close: client.Disconnect,
		}, nil

	default:
		db, err := sqlitestore.Open(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Storage.Path).Msg("sqlite store ready")
		return &stores{
			users:        sqlitestore.NewUserRepository(db),
			transactions: sqlitestore.NewTransactionRepository(db),
			checks: map[string]handler.CheckFunc{
				"sqlite": db.PingContext,
			},
			close: func(context.Context) error { return db.Close() },
		}, nil
	}
}
