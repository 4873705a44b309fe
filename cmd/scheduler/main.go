package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"realestate_ai_backend/internal/audit"
	"realestate_ai_backend/internal/compliance"
	"realestate_ai_backend/internal/events"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/internal/scheduler"
	"realestate_ai_backend/internal/sms"
	"realestate_ai_backend/internal/whatsapp"
	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/db"
	"realestate_ai_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.GetStoreDriver() != config.StoreDriverPostgres {
		panic("scheduler requires STORE_DRIVER=postgres; follow-ups live in the database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	store := repository.New(pool)
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	gate := compliance.NewGatekeeper(store, eventBus, log)
	dispatcher := outbound.NewDispatcher(map[string]outbound.Sender{
		repository.ChannelWhatsApp: whatsapp.NewClient(cfg, log),
		repository.ChannelSMS:      sms.NewClient(cfg, log),
	}, gate, store, audit.NewLog(cfg.GetAuditLogDir()), log)

	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up queue client", "error", err)
		panic("failed to initialize follow-up queue client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	sweeper := scheduler.NewFollowUpSweeper(store, queue, getDurationEnv("FOLLOWUP_SWEEP_INTERVAL", time.Minute), log)
	go sweeper.Run(ctx)

	deliverer := scheduler.NewFollowUpDeliverer(store, gate, dispatcher, log)
	worker, err := scheduler.NewWorker(cfg, deliverer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
