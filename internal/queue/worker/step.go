package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/job"
	"github.com/geocoder89/ciaan/internal/jobs"
	"github.com/geocoder89/ciaan/internal/notifications"
)

// errPermanent marks failures that retrying cannot fix.
var errPermanent = errors.New("permanent job failure")

// ProcessOne claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	// a claimed job finishes even when shutdown starts
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.JobTimeout)
	defer cancel()

	start := w.now()
	log := w.log.With("job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	if err := w.execute(runCtx, j); err != nil {
		return true, w.handleFailure(runCtx, j, err, start)
	}

	if err := w.repo.MarkDone(runCtx, j.ID); err != nil {
		_ = w.repo.MarkFailed(runCtx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.prom.ObserveJob(j.Type, "done", w.now().Sub(start))
	log.Info("job done")
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	decoded, err := jobs.DecodePayload(j)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	switch p := decoded.(type) {
	case jobs.WelcomeNotificationPayload:
		if err := jobs.ValidatePayload(jobs.JobSendWelcomeNotification, p); err != nil {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		return w.notifier.SendWelcome(ctx, notifications.WelcomeInput{
			UserID: p.UserID,
			Email:  p.Email,
			Name:   p.Name,
		})
	default:
		return fmt.Errorf("%w: no handler for %s", errPermanent, j.Type)
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error, start time.Time) error {
	msg := cause.Error()
	log := w.log.With("job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	if errors.Is(cause, errPermanent) || j.LastAttempt() {
		w.prom.ObserveJob(j.Type, "failed", w.now().Sub(start))
		log.Error("job failed", "err", msg)
		return w.repo.MarkFailed(ctx, j.ID, msg)
	}

	runAt := w.now().Add(w.backoff(j.Attempts))
	w.prom.ObserveJob(j.Type, "retry", w.now().Sub(start))
	log.Warn("job retry scheduled", "err", msg, "run_at", runAt)
	return w.repo.Reschedule(ctx, j.ID, runAt, msg)
}
