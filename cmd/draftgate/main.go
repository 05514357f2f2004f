package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftgate/draftgate/internal/config"
	"github.com/draftgate/draftgate/internal/logger"
	"github.com/draftgate/draftgate/internal/repository"
	"github.com/draftgate/draftgate/internal/server"
	"github.com/draftgate/draftgate/internal/sportsdata"
	"github.com/draftgate/draftgate/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	cfg, err := config.Load("config.json")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Server.LogLevel, cfg.Server.Environment)
	defer log.Sync()

	redis, err := storage.NewRedis(
		cfg.Redis.GetRedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	postgres, err := storage.NewPostgres(cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	log.Info("connected to redis and postgres")

	applyQuotaOverrides(cfg, postgres, log)

	playerRepo := repository.NewPlayerRepository(postgres)
	feed := sportsdata.New(cfg.SportsData.BaseURL, playerRepo, log)

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	if cfg.SportsData.BaseURL != "" {
		go feed.Run(feedCtx, time.Duration(cfg.SportsData.RefreshMinutes)*time.Minute)
	} else {
		log.Warn("sports data feed not configured, player pool will not refresh")
	}

	srv := server.New(cfg, redis, postgres, feed, log)

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// applyQuotaOverrides lets operators change per-tier ceilings in the
// database without a redeploy. Rows there win over config.json.
func applyQuotaOverrides(cfg *config.Config, postgres *storage.Postgres, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	overrides, err := repository.NewTierQuotaRepository(postgres).List(ctx)
	if err != nil {
		log.Warn("failed to load quota overrides, using config values", zap.Error(err))
		return
	}

	for _, o := range overrides {
		replaced := false
		for i, q := range cfg.Quotas {
			if q.Tier == o.Tier {
				cfg.Quotas[i].RequestsPerHour = o.RequestsPerHour
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Quotas = append(cfg.Quotas, config.QuotaConfig{
				Tier:            o.Tier,
				RequestsPerHour: o.RequestsPerHour,
			})
		}
		log.Info("quota override applied",
			zap.String("tier", o.Tier),
			zap.Int("requests_per_hour", o.RequestsPerHour))
	}
}
