package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realestate_ai_backend/internal/audit"
	"realestate_ai_backend/internal/compliance"
	"realestate_ai_backend/internal/email"
	"realestate_ai_backend/internal/events"
	apphttp "realestate_ai_backend/internal/http"
	"realestate_ai_backend/internal/http/router"
	"realestate_ai_backend/internal/inbound"
	"realestate_ai_backend/internal/inbound/dedup"
	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/internal/leads/scheduling"
	"realestate_ai_backend/internal/notification"
	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/internal/scheduler"
	"realestate_ai_backend/internal/sms"
	"realestate_ai_backend/internal/whatsapp"
	"realestate_ai_backend/migrations"
	"realestate_ai_backend/platform/ai/openaicompat"
	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/db"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.GetStoreDriver())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	store, pool := openStore(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	seen, closeDedup := initDedup(cfg, log)
	if closeDedup != nil {
		defer closeDedup()
	}

	followUpQueue, closeQueue := initFollowUpQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	auditLog := audit.NewLog(cfg.GetAuditLogDir())
	startAuditArchiver(ctx, cfg, auditLog, log)

	val := validator.New()
	profile := cfg.GetAgentProfile()

	// ========================================================================
	// Pipeline (Composition Root)
	// ========================================================================

	gate := compliance.NewGatekeeper(store, eventBus, log)
	compliance.NewFollowUpCanceller(store, log).Subscribe(eventBus)

	dispatcher := outbound.NewDispatcher(map[string]outbound.Sender{
		repository.ChannelWhatsApp: whatsapp.NewClient(cfg, log),
		repository.ChannelSMS:      sms.NewClient(cfg, log),
	}, gate, store, auditLog, log)

	classifier, err := initClassifier(cfg, log)
	if err != nil {
		log.Error("failed to initialize classifier", "error", err)
		panic("failed to initialize classifier: " + err.Error())
	}

	coordinator := scheduling.NewCoordinator(store, followUpQueue, eventBus, profile.Location(), log)

	var mailer email.Sender = email.NoopSender{}
	if cfg.GetEmailEnabled() {
		mailer = email.NewSMTPSender(cfg)
	}
	notification.New(mailer, dispatcher, cfg, profile.Location(), log).RegisterHandlers(eventBus)

	orchestrator := inbound.NewOrchestrator(inbound.Dependencies{
		Dedup:            seen,
		Gate:             gate,
		Store:            store,
		Assembler:        inbound.NewAssembler(store, cfg.GetHistoryWindow(), log),
		Classifier:       classifier,
		Coordinator:      coordinator,
		Dispatcher:       dispatcher,
		Audit:            auditLog,
		Validator:        val,
		UnsubscribeReply: profile.UnsubscribeReply,
		DefaultTenantID:  cfg.GetDefaultTenantID(),
		Logger:           log,
	})

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			inbound.NewModule(orchestrator, cfg, log),
			compliance.NewModule(gate, val),
			audit.NewModule(auditLog),
		},
	}
	if pool != nil {
		app.Health = db.NewPoolAdapter(pool)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, *pgxpool.Pool) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	case config.StoreDriverNone:
		log.Warn("no database configured; running with CSV audit logs only")
		return repository.NewNoop(), nil
	}

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, log)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	return repository.New(pool), pool
}

func initDedup(cfg config.DedupConfig, log *logger.Logger) (dedup.Cache, func()) {
	local := dedup.NewMemoryCache(cfg.GetDedupMaxEntries(), cfg.GetDedupRetention())
	if cfg.GetDedupBackend() != config.DedupBackendRedis {
		return local, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; falling back to in-memory dedup", "error", err)
		return local, nil
	}
	client := redis.NewClient(opt)
	log.Info("dedup cache backed by redis", "addr", opt.Addr)
	return dedup.NewRedisCache(client, cfg.GetDedupRetention(), local, log), func() {
		_ = client.Close()
	}
}

func initFollowUpQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-ups are stored but not delivered")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initClassifier(cfg *config.Config, log *logger.Logger) (*agent.Classifier, error) {
	profile := cfg.GetAgentProfile()
	if cfg.GetOracleAPIKey() == "" {
		log.Warn("ORACLE_API_KEY not configured; every message gets the fallback reply")
	}

	llm := openaicompat.NewModel(openaicompat.Config{
		APIKey:   cfg.GetOracleAPIKey(),
		BaseURL:  cfg.GetOracleBaseURL(),
		Model:    cfg.GetOracleModel(),
		Timeout:  cfg.GetOracleTimeout(),
		JSONMode: true,
	})
	gen, err := agent.NewAgentGenerator(llm, agent.GeneratorConfig{
		Instruction: agent.SystemPrompt(profile),
		Temperature: cfg.GetOracleTemperature(),
	})
	if err != nil {
		return nil, err
	}
	return agent.NewClassifier(gen, profile, cfg.GetOracleTimeout(), log), nil
}

func startAuditArchiver(ctx context.Context, cfg *config.Config, auditLog *audit.Log, log *logger.Logger) {
	if !cfg.IsMinIOEnabled() {
		return
	}
	store, err := audit.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize audit archive storage", "error", err)
		return
	}
	archiver := audit.NewArchiver(auditLog, store, cfg.GetMinioBucketAudit(), cfg.GetAuditArchiveInterval(), log)
	go archiver.Run(ctx)
	log.Info("audit archiver started", "bucket", cfg.GetMinioBucketAudit(), "interval", cfg.GetAuditArchiveInterval())
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
