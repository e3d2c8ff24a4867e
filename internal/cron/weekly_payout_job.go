package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/freshlane/marketplace-backend/internal/payouts"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

// WeeklyPayoutJobParams configure the weekly settlement run.
type WeeklyPayoutJobParams struct {
	Logger    *logger.Logger
	Generator payoutGenerator
	Periods   periodChecker
	// Weekday on which the previous week settles.
	Weekday time.Weekday
}

type payoutGenerator interface {
	Generate(ctx context.Context, periodStart, periodEnd time.Time) (*payouts.GenerateResult, error)
}

type periodChecker interface {
	ExistsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (bool, error)
}

// NewWeeklyPayoutJob builds the cron job that settles the previous
// Monday-to-Sunday window once its payout day arrives.
func NewWeeklyPayoutJob(params WeeklyPayoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("payout generator required")
	}
	if params.Periods == nil {
		return nil, fmt.Errorf("period checker required")
	}
	return &weeklyPayoutJob{
		logg:      params.Logger,
		generator: params.Generator,
		periods:   params.Periods,
		weekday:   params.Weekday,
		now:       time.Now,
	}, nil
}

type weeklyPayoutJob struct {
	logg      *logger.Logger
	generator payoutGenerator
	periods   periodChecker
	weekday   time.Weekday
	now       func() time.Time
}

func (j *weeklyPayoutJob) Name() string { return "weekly-payouts" }

func (j *weeklyPayoutJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	if now.Weekday() != j.weekday {
		return nil
	}

	periodStart, periodEnd := previousWeek(now)
	done, err := j.periods.ExistsForPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("check payout period: %w", err)
	}
	if done {
		return nil
	}

	result, err := j.generator.Generate(ctx, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("generate weekly payouts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"period_start": periodStart,
		"period_end":   periodEnd,
		"orders":       result.OrderCount,
		"payouts":      len(result.Payouts),
	}), "weekly payout run complete")
	return nil
}

// previousWeek returns the most recent complete Monday 00:00 to Monday 00:00
// UTC window before now.
func previousWeek(now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	thisMonday := midnight.AddDate(0, 0, -daysSinceMonday)
	return thisMonday.AddDate(0, 0, -7), thisMonday
}
