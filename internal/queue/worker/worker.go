package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/contacthub/internal/jobs"
	"github.com/geocoder89/contacthub/internal/notifications"
	"github.com/geocoder89/contacthub/internal/queue/redisclient"
)

type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error)
	Enqueue(ctx context.Context, j jobs.Job) error
}

type Config struct {
	PollTimeout time.Duration
}

type Worker struct {
	cfg      Config
	source   JobSource
	notifier notifications.Notifier
	log      *slog.Logger
	record   func(jobType, result string)
}

// New builds a worker. record may be nil when no metrics sink is wired.
func New(cfg Config, source JobSource, notifier notifications.Notifier, log *slog.Logger, record func(jobType, result string)) *Worker {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		source:   source,
		notifier: notifier,
		log:      log,
		record:   record,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	transportFailures := 0

	for {
		if ctx.Err() != nil {
			w.log.Info("worker received shutdown signal")
			return nil
		}

		j, err := w.source.Dequeue(ctx, w.cfg.PollTimeout)

		if err != nil {
			if errors.Is(err, redisclient.ErrEmpty) {
				transportFailures = 0
				continue
			}
			if ctx.Err() != nil {
				w.log.Info("worker received shutdown signal")
				return nil
			}

			w.log.Error("dequeue failed", "err", err)

			select {
			case <-time.After(ExponentialBackoff(transportFailures)):
			case <-ctx.Done():
				return nil
			}
			transportFailures++
			continue
		}

		transportFailures = 0
		w.handle(ctx, j)
	}
}

func (w *Worker) handle(ctx context.Context, j jobs.Job) {
	err := w.dispatch(ctx, j)

	if err == nil {
		w.log.Info("job done", "job_id", j.ID, "type", j.Type)
		w.observe(j, "ok")
		return
	}

	j.Attempts++

	if j.Attempts >= j.MaxTries {
		w.log.Error("job dropped after max tries", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", err)
		w.observe(j, "dropped")
		return
	}

	w.log.Warn("job failed, requeueing", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts, "err", err)

	if reqErr := w.source.Enqueue(ctx, j); reqErr != nil {
		w.log.Error("requeue failed, job lost", "job_id", j.ID, "err", reqErr)
		w.observe(j, "lost")
		return
	}

	w.observe(j, "retried")
}

func (w *Worker) dispatch(ctx context.Context, j jobs.Job) error {
	payload, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.SendWelcomePayload:
		return w.notifier.SendWelcome(ctx, notifications.SendWelcomeInput{
			UserID: p.UserID,
			Email:  p.Email,
			Name:   p.Name,
		})
	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) observe(j jobs.Job, result string) {
	if w.record != nil {
		w.record(string(j.Type), result)
	}
}
