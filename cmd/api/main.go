package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/freshlane/marketplace-backend/api/routes"
	"github.com/freshlane/marketplace-backend/internal/catalog"
	"github.com/freshlane/marketplace-backend/internal/commission"
	"github.com/freshlane/marketplace-backend/internal/orders"
	"github.com/freshlane/marketplace-backend/internal/payouts"
	"github.com/freshlane/marketplace-backend/internal/pricing"
	"github.com/freshlane/marketplace-backend/internal/quality"
	"github.com/freshlane/marketplace-backend/internal/reservation"
	"github.com/freshlane/marketplace-backend/internal/sellers"
	"github.com/freshlane/marketplace-backend/pkg/config"
	"github.com/freshlane/marketplace-backend/pkg/db"
	"github.com/freshlane/marketplace-backend/pkg/logger"
	"github.com/freshlane/marketplace-backend/pkg/migrate"
	"github.com/freshlane/marketplace-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	svcs, err := buildServices(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		grace, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(grace); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (routes.Services, error) {
	gormDB := dbClient.DB()

	sellerRepo := sellers.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	commissionRepo := commission.NewRepository(gormDB)
	reservationRepo := reservation.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	payoutRepo := payouts.NewRepository(gormDB)
	qualityRepo := quality.NewRepository(gormDB)

	sellerSvc, err := sellers.NewService(sellerRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}
	catalogSvc, err := catalog.NewService(catalogRepo, sellerSvc)
	if err != nil {
		return routes.Services{}, err
	}
	commissionSvc, err := commission.NewService(commissionRepo, dbClient, sellerSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}
	pricingSvc, err := pricing.NewService(catalogRepo, commissionSvc, sellerSvc)
	if err != nil {
		return routes.Services{}, err
	}
	reservationSvc, err := reservation.NewService(reservationRepo, catalogRepo, dbClient, logg, cfg.Cron.ReservationTTL)
	if err != nil {
		return routes.Services{}, err
	}
	qualitySvc, err := quality.NewService(qualityRepo, orderRepo, dbClient, sellerSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}
	payoutSvc, err := payouts.NewService(payoutRepo, orderRepo, dbClient, commissionSvc, sellerSvc, qualitySvc, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:     catalogSvc,
		Pricing:     pricingSvc,
		Reservation: reservationSvc,
		Commission:  commissionSvc,
		Payouts:     payoutSvc,
		Quality:     qualitySvc,
	}, nil
}
