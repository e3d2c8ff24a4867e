package cron

import (
	"context"
	"fmt"

	"github.com/freshlane/marketplace-backend/pkg/logger"
)

// ReservationSweepJobParams configure the expired hold sweeper.
type ReservationSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper expiredSweeper
}

type expiredSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// NewReservationSweepJob builds the cron job that releases lapsed stock
// holds.
func NewReservationSweepJob(params ReservationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("reservation sweeper required")
	}
	return &reservationSweepJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type reservationSweepJob struct {
	logg    *logger.Logger
	sweeper expiredSweeper
}

func (j *reservationSweepJob) Name() string { return "reservation-sweep" }

func (j *reservationSweepJob) Run(ctx context.Context) error {
	swept, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired reservations: %w", err)
	}
	if swept > 0 {
		j.logg.Info(j.logg.WithField(ctx, "count", swept), "lapsed holds released")
	}
	return nil
}
