package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/contacthub/internal/avatar"
	"github.com/geocoder89/contacthub/internal/cache"
	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/db"
	httpx "github.com/geocoder89/contacthub/internal/http"
	"github.com/geocoder89/contacthub/internal/observability"
	"github.com/geocoder89/contacthub/internal/queue/redisclient"
	"github.com/geocoder89/contacthub/internal/repo/file"
	"github.com/geocoder89/contacthub/internal/repo/postgres"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// optional .env for local runs
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in
	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, "contacthub-api", cfg.OTLPEndpoint)
		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(3 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	deps := httpx.Deps{
		Prom: prom,
	}

	// store backend

	switch cfg.StoreBackend {
	case "postgres":
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			log.Error("postgres connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		{
			ctx, cancel := config.WithTimeout(30 * time.Second)
			err = db.RunMigrations(ctx, cfg.DBURL)
			cancel()

			if err != nil {
				log.Error("migrations failed", "err", err)
				os.Exit(1)
			}
		}

		deps.Users = postgres.NewUsersRepo(pool, prom.ObserveStoreOp)
		deps.Contacts = postgres.NewContactsRepo(pool, prom.ObserveStoreOp)
		deps.Ready = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return pool.Ping(ctx)
		}

	default:
		snapshots := cache.New(2 * time.Second)
		deps.Users = file.NewUsersRepo(cfg.UsersFile, prom.ObserveStoreOp)
		deps.Contacts = file.NewContactsRepo(cfg.ContactsFile, snapshots, prom.ObserveStoreOp)
	}

	// welcome-notification queue is optional

	if cfg.RedisAddr != "" {
		queue := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer queue.Close()

		deps.Queue = queue
	}

	// avatar storage

	if cfg.AvatarBucket != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		s3Store, err := avatar.NewS3Store(ctx, cfg.AvatarBucket, cfg.AvatarRegion)
		cancel()

		if err != nil {
			log.Error("s3 avatar store init failed", "err", err)
			os.Exit(1)
		}

		deps.Avatars = s3Store
	} else {
		deps.Avatars = avatar.NewDiskStore(cfg.AvatarDir)
	}

	router := httpx.NewRouter(log, cfg, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
