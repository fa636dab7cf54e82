package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/notifications"
	"github.com/geocoder89/contacthub/internal/observability"
	"github.com/geocoder89/contacthub/internal/queue/redisclient"
	"github.com/geocoder89/contacthub/internal/queue/worker"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.RedisAddr == "" {
		log.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	queue := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer queue.Close()

	{
		pingCtx, cancel := config.WithTimeout(3 * time.Second)
		err := queue.Ping(pingCtx)
		cancel()

		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	w := worker.New(worker.Config{
		PollTimeout: 5 * time.Second,
	}, queue, notifier, log, func(jobType, result string) {
		prom.JobResults.WithLabelValues(jobType, result).Inc()
	})

	log.Info("worker has started")

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
