package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/job"
	"github.com/geocoder89/ciaan/internal/notifications"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/robfig/cron/v3"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	JobTimeout    time.Duration
	LockTTL       time.Duration
	// SweepSpec is a cron expression for releasing stale locks, e.g. "@every 1m".
	SweepSpec string
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
	backoff  func(attempt int) time.Duration
	now      func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.SweepSpec == "" {
		cfg.SweepSpec = "@every 1m"
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		log:      log.With("worker_id", cfg.WorkerID),
		prom:     prom,
		backoff:  ExponentialBackoff,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, then waits up to ShutdownGrace for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	sched := cron.New()
	if _, err := sched.AddFunc(w.cfg.SweepSpec, func() { w.SweepStale(ctx) }); err != nil {
		return err
	}
	sched.Start()

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}

	w.setReady(true)
	w.log.Info("worker started", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval)

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	<-sched.Stop().Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Warn("shutdown grace elapsed with jobs still running")
	}
	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	for {
		if ctx.Err() != nil {
			return
		}

		processed, err := w.ProcessOne(ctx)
		if err != nil {
			w.log.Error("process job", "slot", slot, "err", err)
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// SweepStale puts jobs locked longer than LockTTL back to pending.
func (w *Worker) SweepStale(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := w.repo.RequeueStaleProcessing(sweepCtx, w.cfg.LockTTL)
	if err != nil {
		w.log.Error("requeue stale jobs", "err", err)
		return
	}
	if n > 0 {
		w.log.Warn("requeued stale jobs", "count", n)
	}
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
