package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/matching"
	"github.com/findthemapp/findthem-core/internal/repository"
)

// MatchScheduler is what the observer sees: a way to kick off a sweep for a
// case id.
type MatchScheduler interface {
	ScheduleSweep(caseID uint64) bool
}

// Runner schedules and executes matching sweeps on the pool.
type Runner struct {
	pool    *Pool
	cases   *repository.CaseRepository
	sweeper *matching.Sweeper
	bus     *events.Bus
	retries int
	delay   time.Duration
	log     *slog.Logger
}

// NewRunner builds a Runner. retries/delay tune the visibility retry loop:
// a job can start before the transaction that created its case commits, so
// a not-found lookup is retried before the sweep is written off.
func NewRunner(
	pool *Pool,
	cases *repository.CaseRepository,
	sweeper *matching.Sweeper,
	bus *events.Bus,
	retries int,
	delay time.Duration,
	log *slog.Logger,
) *Runner {
	return &Runner{
		pool:    pool,
		cases:   cases,
		sweeper: sweeper,
		bus:     bus,
		retries: retries,
		delay:   delay,
		log:     log,
	}
}

// ScheduleSweep queues a sweep for the case. The job carries only the id so
// execution always starts from a fresh, consistent read.
func (r *Runner) ScheduleSweep(caseID uint64) bool {
	ok := r.pool.Submit(&matchJob{runner: r, caseID: caseID})
	if ok {
		r.log.Info("matching job scheduled", "case_id", caseID)
	} else {
		r.log.Error("matching job dropped, queue full", "case_id", caseID)
	}
	return ok
}

type matchJob struct {
	runner *Runner
	caseID uint64
}

// Run loads the case (retrying visibility races), sweeps it and announces
// any new matches on the bus. Every failure path only logs: the triggering
// request returned long ago.
func (j *matchJob) Run(ctx context.Context) {
	r := j.runner

	c, ok := j.loadCase(ctx)
	if !ok {
		return
	}

	matches, err := r.sweeper.Run(ctx, c)
	if err != nil {
		r.log.Error("matching sweep failed", "case_id", j.caseID, "err", err)
		return
	}
	if len(matches) == 0 {
		return
	}

	r.bus.Publish(ctx, events.MatchesFound{Case: *c, Matches: matches})
}

// loadCase retries not-found lookups a bounded number of times with a fixed
// delay. After exhaustion the job aborts: a lost match opportunity, surfaced
// only through the log.
func (j *matchJob) loadCase(ctx context.Context) (*db.Case, bool) {
	r := j.runner

	for attempt := 0; ; attempt++ {
		c, err := r.cases.GetByID(ctx, j.caseID)
		if err == nil {
			return c, true
		}
		if !svcErr.IsNotFound(err) {
			r.log.Error("case lookup failed", "case_id", j.caseID, "err", err)
			return nil, false
		}
		if attempt >= r.retries {
			r.log.Error("case never became visible, sweep abandoned",
				"case_id", j.caseID, "attempts", attempt+1)
			return nil, false
		}

		r.log.Warn("case not visible yet, retrying",
			"case_id", j.caseID, "attempt", attempt+1, "delay", r.delay)
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(r.delay):
		}
	}
}
