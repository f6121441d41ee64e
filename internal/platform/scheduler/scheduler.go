// Package scheduler runs the service's periodic maintenance jobs on cron
// schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/idempotency"
)

// Evictor drops idle saved-trips views.
type Evictor interface {
	EvictIdle(ttl time.Duration) int
}

type Scheduler struct {
	cron *cron.Cron
	clk  clockport.Clock
	log  *zap.SugaredLogger
}

func New(clk clockport.Clock, log *zap.SugaredLogger) *Scheduler {
	log = logging.OrNop(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		clk: clk,
		log: log,
	}
}

// EvictIdleViews registers a job unmounting views idle for longer than ttl.
func (s *Scheduler) EvictIdleViews(spec string, ev Evictor, ttl time.Duration) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { s.evict(ev, ttl) })
}

// PruneIdempotency registers a job dropping idempotency records older than ttl.
func (s *Scheduler) PruneIdempotency(spec string, p idempotency.Pruner, ttl time.Duration) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { s.prune(context.Background(), p, ttl) })
}

func (s *Scheduler) evict(ev Evictor, ttl time.Duration) {
	if n := ev.EvictIdle(ttl); n > 0 {
		s.log.Infow("idle views evicted", "count", n)
	}
}

func (s *Scheduler) prune(ctx context.Context, p idempotency.Pruner, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	n, err := p.PruneBefore(ctx, s.clk.Now().Add(-ttl))
	if err != nil {
		s.log.Errorw("idempotency prune failed", "error", err)
		return
	}
	s.log.Debugw("idempotency records pruned", "count", n)
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs or ctx, whichever is first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warnw("scheduler stop timed out; jobs still running")
	}
}

func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...any) { l.log.Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Errorw(msg, append(kv, "error", err)...)
}
