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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshlane/marketplace-backend/internal/catalog"
	"github.com/freshlane/marketplace-backend/internal/commission"
	"github.com/freshlane/marketplace-backend/internal/cron"
	"github.com/freshlane/marketplace-backend/internal/orders"
	"github.com/freshlane/marketplace-backend/internal/payouts"
	"github.com/freshlane/marketplace-backend/internal/quality"
	"github.com/freshlane/marketplace-backend/internal/reservation"
	"github.com/freshlane/marketplace-backend/internal/sellers"
	"github.com/freshlane/marketplace-backend/pkg/config"
	"github.com/freshlane/marketplace-backend/pkg/db"
	"github.com/freshlane/marketplace-backend/pkg/logger"
	"github.com/freshlane/marketplace-backend/pkg/metrics"
	"github.com/freshlane/marketplace-backend/pkg/migrate"
	"github.com/freshlane/marketplace-backend/pkg/redis"
)

const lockKeyFormat = "fl:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg, cfg.Flags.UseSQLite)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildRegistry(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire cron jobs", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Cron.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(context.Background(), "metrics server stopped unexpectedly", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	grace, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(grace); err != nil {
		logg.Error(ctx, "metrics server shutdown failed", err)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (*cron.Registry, error) {
	gormDB := dbClient.DB()

	sellerSvc, err := sellers.NewService(sellers.NewRepository(gormDB), logg)
	if err != nil {
		return nil, err
	}
	commissionSvc, err := commission.NewService(commission.NewRepository(gormDB), dbClient, sellerSvc, logg)
	if err != nil {
		return nil, err
	}
	reservationSvc, err := reservation.NewService(
		reservation.NewRepository(gormDB),
		catalog.NewRepository(gormDB),
		dbClient,
		logg,
		cfg.Cron.ReservationTTL,
	)
	if err != nil {
		return nil, err
	}
	orderRepo := orders.NewRepository(gormDB)
	qualitySvc, err := quality.NewService(quality.NewRepository(gormDB), orderRepo, dbClient, sellerSvc, logg)
	if err != nil {
		return nil, err
	}
	payoutRepo := payouts.NewRepository(gormDB)
	payoutSvc, err := payouts.NewService(payoutRepo, orderRepo, dbClient, commissionSvc, sellerSvc, qualitySvc, logg)
	if err != nil {
		return nil, err
	}

	sweepJob, err := cron.NewReservationSweepJob(cron.ReservationSweepJobParams{
		Logger:  logg,
		Sweeper: reservationSvc,
	})
	if err != nil {
		return nil, err
	}
	payoutJob, err := cron.NewWeeklyPayoutJob(cron.WeeklyPayoutJobParams{
		Logger:    logg,
		Generator: payoutSvc,
		Periods:   payoutRepo,
		Weekday:   time.Weekday(cfg.Cron.PayoutWeekday),
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(sweepJob, payoutJob), nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
