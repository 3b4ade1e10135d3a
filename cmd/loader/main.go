package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/actuallystonmai/movie-search-service/internal/checkpoint"
	"github.com/actuallystonmai/movie-search-service/internal/config"
	"github.com/actuallystonmai/movie-search-service/internal/loader"
	"github.com/actuallystonmai/movie-search-service/internal/logging"
	"github.com/actuallystonmai/movie-search-service/internal/repository"
	"github.com/actuallystonmai/movie-search-service/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	var (
		dir         = flag.String("dir", cfg.DataDir, "directory holding the MovieLens CSV files")
		truncate    = flag.Bool("truncate", false, "clear every table before importing")
		resume      = flag.Bool("resume", false, "continue each file from its last committed checkpoint")
		batchSize   = flag.Int("batch", loader.DefaultBatchSize, "rows per committed batch")
		concurrency = flag.Int("concurrency", loader.DefaultConcurrency, "files imported in parallel")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse database config")
	}
	poolConfig.MaxConns = int32(max(cfg.DBPoolSize, *concurrency))
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := migrations.Up(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate up")
	}

	// ------------ Redis checkpoints ---------------
	checkpoints := openCheckpoints(ctx, cfg.RedisURL, *resume)

	l := loader.New(repository.NewBulkWriter(pool), checkpoints, loader.Options{
		Dir:         *dir,
		Truncate:    *truncate,
		Resume:      *resume,
		BatchSize:   *batchSize,
		Concurrency: *concurrency,
	})

	results, err := l.Run(ctx)
	for _, r := range results {
		logging.Info().
			Str("table", r.Table).
			Int64("inserted", r.Inserted).
			Int64("skipped", r.Skipped).
			Bool("missing", r.Missing).
			Msg("import summary")
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("error while populating the database")
	}
}

// openCheckpoints connects to Redis. Without -resume an unreachable Redis
// only disables checkpointing.
func openCheckpoints(ctx context.Context, url string, resume bool) loader.Checkpoints {
	opts, err := redis.ParseURL(url)
	if err == nil {
		store := checkpoint.NewStore(redis.NewClient(opts))
		if err = store.Ping(ctx); err == nil {
			logging.Info().Msg("connected to Redis")
			return store
		}
	}

	if resume {
		logging.Fatal().Err(err).Msg("checkpoints unavailable, cannot resume")
	}
	logging.Warn().Err(err).Msg("checkpoints unavailable, continuing without them")
	return checkpoint.NewMemory()
}
