package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actuallystonmai/movie-search-service/internal/config"
	"github.com/actuallystonmai/movie-search-service/internal/handler"
	"github.com/actuallystonmai/movie-search-service/internal/logging"
	"github.com/actuallystonmai/movie-search-service/internal/repository"
	"github.com/actuallystonmai/movie-search-service/internal/router"
	"github.com/actuallystonmai/movie-search-service/internal/service"
	"github.com/actuallystonmai/movie-search-service/migrations"
	"github.com/actuallystonmai/movie-search-service/seeds"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse database config")
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("database not ready")
	}
	logging.Info().Msg("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := migrations.Down(ctx, pool); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate down")
		}
		logging.Info().Msg("migrations dropped")
		return
	}

	if err := migrations.Up(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate up")
	}
	logging.Info().Msg("migrations applied")

	repo := repository.New(pool)

	// ------------ Setup Seed Data ---------------
	if cfg.SeedOnEmpty {
		if err := checkSeed(ctx, repo, pool); err != nil {
			logging.Fatal().Err(err).Msg("failed to check seed")
		}
	}

	// ---------------- Server --------------------
	svc := service.NewService(repo, cfg.PopularityFloor, nil)
	h := handler.NewHandler(svc)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(h, router.Options{
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimitRequests:  cfg.RateLimitRequests,
			RateLimitWindow:    cfg.RateLimitWindow,
			RequestTimeout:     cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
	logging.Info().Msg("server stopped")
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func checkSeed(ctx context.Context, repo *repository.Repository, pool *pgxpool.Pool) error {
	var count int
	err := repo.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		count, err = c.CountMovies(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("check movie count: %w", err)
	}
	if count > 0 {
		logging.Info().Int("movies", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, pool)
}
