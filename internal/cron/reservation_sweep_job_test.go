package cron

import (
	"context"
	"fmt"
	"testing"

	"github.com/freshlane/marketplace-backend/pkg/logger"
)

type fakeSweeper struct {
	swept int
	err   error
	calls int
}

func (f *fakeSweeper) SweepExpired(context.Context) (int, error) {
	f.calls++
	return f.swept, f.err
}

func newReservationSweepJobTest(t *testing.T, sweeper *fakeSweeper) Job {
	t.Helper()

	job, err := NewReservationSweepJob(ReservationSweepJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("NewReservationSweepJob: %v", err)
	}
	return job
}

func TestReservationSweepJob_runsSweeper(t *testing.T) {
	sweeper := &fakeSweeper{swept: 3}
	job := newReservationSweepJobTest(t, sweeper)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected 1 sweep call, got %d", sweeper.calls)
	}
}

func TestReservationSweepJob_propagatesError(t *testing.T) {
	sweeper := &fakeSweeper{err: fmt.Errorf("db down")}
	job := newReservationSweepJobTest(t, sweeper)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReservationSweepJob_name(t *testing.T) {
	job := newReservationSweepJobTest(t, &fakeSweeper{})
	if job.Name() != "reservation-sweep" {
		t.Fatalf("unexpected name: %s", job.Name())
	}
}
