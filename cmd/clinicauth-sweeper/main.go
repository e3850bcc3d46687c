// Command clinicauth-sweeper periodically reconciles the session store:
// it removes expired session records and prunes stale user-index
// entries. Run one instance per Redis deployment; Redis key expiry does
// most of the garbage collection, the sweeper handles the remainder.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/clinicauth/session"
)

type config struct {
	RedisAddr     string        `env:"SWEEPER_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `env:"SWEEPER_REDIS_PASSWORD" env-default:""`
	RedisDB       int           `env:"SWEEPER_REDIS_DB" env-default:"0"`
	KeyPrefix     string        `env:"SWEEPER_KEY_PREFIX" env-default:"ca"`
	Interval      time.Duration `env:"SWEEPER_INTERVAL" env-default:"5m"`
	SweepTimeout  time.Duration `env:"SWEEPER_TIMEOUT" env-default:"1m"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	store := session.NewStore(client, cfg.KeyPrefix)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := store.Ping(ctx); err != nil {
		logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("sweeper started", "addr", cfg.RedisAddr, "prefix", cfg.KeyPrefix, "interval", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		sweep(ctx, logger, store, cfg.SweepTimeout)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.Info("sweeper stopping")
			return
		}
	}
}

func sweep(ctx context.Context, logger *slog.Logger, store *session.Store, timeout time.Duration) {
	sweepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	removed, err := store.Sweep(sweepCtx, time.Now())
	if err != nil {
		logger.Error("sweep failed", "removed", removed, "error", err)
		return
	}
	logger.Info("sweep complete", "removed", removed, "took", time.Since(start))
}
