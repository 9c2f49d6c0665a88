package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"sofie/internal/audit"
	consenthandler "sofie/internal/consent/handler"
	consentmetrics "sofie/internal/consent/metrics"
	consentservice "sofie/internal/consent/service"
	consentstore "sofie/internal/consent/store"
	evidencehandler "sofie/internal/evidence/handler"
	"sofie/internal/evidence/library"
	evidencemetrics "sofie/internal/evidence/metrics"
	"sofie/internal/generation"
	guidancehandler "sofie/internal/guidance/handler"
	guidancemetrics "sofie/internal/guidance/metrics"
	"sofie/internal/guidance/prompt"
	guidanceservice "sofie/internal/guidance/service"
	"sofie/internal/platform/config"
	"sofie/internal/platform/database"
	"sofie/internal/platform/health"
	"sofie/internal/platform/httpserver"
	"sofie/internal/platform/kafka"
	"sofie/internal/platform/kafka/producer"
	"sofie/internal/platform/logger"
	"sofie/internal/platform/metrics"
	"sofie/internal/platform/redis"
	ritualhandler "sofie/internal/ritual/handler"
	"sofie/internal/ritual/ledger"
	ritualmetrics "sofie/internal/ritual/metrics"
	"sofie/internal/ritual/rules"
	"sofie/internal/ritual/scheduler"
	"sofie/internal/ritual/signals"
	"sofie/internal/ritual/sink"
	httptransport "sofie/internal/transport/http"
	"sofie/migrations"
	"sofie/pkg/platform/circuit"
	"sofie/pkg/platform/httputil"
	"sofie/pkg/platform/tracer"
)

// staticBackend selects the canned generator instead of a llama server.
const staticBackend = "static"

const (
	auditEventsPerUser = 100
	auditUsers         = 10000
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing sofie",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"consent_store", cfg.Consent.Store,
		"consent_enforced", cfg.Consent.Enforce,
	)

	appMetrics := metrics.New()
	appMetrics.SetBuildInfo(health.Version, cfg.Environment)
	trace := tracer.NewOTel(tracer.WithOTelTracer(otel.Tracer("sofie")))

	var (
		lib           *library.Library
		generator     generation.Generator
		consentLedger *consentservice.Ledger
	)
	// The status closure only runs once the server is serving, after every
	// component below is assigned.
	healthHandler := health.New(cfg.Environment, func(ctx context.Context) health.ServiceStatus {
		stats := lib.Stats()
		return health.ServiceStatus{
			GenerationAvailable:       generator.Available(ctx),
			ConsentEnforcementEnabled: consentLedger.EnforcementEnabled(),
			EvidenceModules:           stats.Modules,
			EvidenceRecords:           stats.Records,
		}
	})
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close failed", "error", err)
			}
		}
	}()

	var kafkaProducer *producer.Producer
	if strings.TrimSpace(cfg.Kafka.Brokers) != "" {
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			return err
		}
		kafkaProducer = p
		closers = append(closers, p.Close)
		checker, err := kafka.NewHealthChecker(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		closers = append(closers, checker.Close)
		healthHandler.RegisterCheck("kafka", checker.Check)
	}

	// Consent ledger. The local audit trail is bounded; Kafka carries the
	// complete record when configured.
	var auditStore audit.Store = audit.NewInMemoryStore(
		audit.WithMaxEventsPerUser(auditEventsPerUser),
		audit.WithMaxUsers(auditUsers),
	)
	if kafkaProducer != nil {
		auditStore = audit.NewStreamStore(auditStore, kafkaProducer, cfg.Consent.AuditTopic)
	}
	auditor := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	closers = append(closers, func() error { auditor.Close(); return nil })

	consentOpts := []consentservice.Option{
		consentservice.WithMetrics(consentmetrics.New()),
		consentservice.WithConsentTTL(cfg.Consent.TTL),
		consentservice.WithEnforcement(cfg.Consent.Enforce),
	}
	store, storeOpts, err := buildConsentStore(ctx, cfg, healthHandler, &closers)
	if err != nil {
		return err
	}
	consentLedger = consentservice.New(store, auditor, log, append(consentOpts, storeOpts...)...)

	// Evidence library.
	lib = library.New(library.DirSource(cfg.Evidence.LibraryDir),
		library.WithLogger(log),
		library.WithMetrics(evidencemetrics.New()),
		library.WithDefaultTopK(cfg.Evidence.TopK),
	)
	if err := lib.Load(ctx); err != nil {
		log.Warn("evidence library unavailable; guidance runs without evidence",
			"dir", cfg.Evidence.LibraryDir,
			"error", err,
		)
	}

	// Guidance orchestrator.
	generator = buildGenerator(cfg.Generation, log)
	orchestrator := guidanceservice.New(consentLedger, lib, generator,
		guidanceservice.WithLogger(log),
		guidanceservice.WithMetrics(guidancemetrics.New()),
		guidanceservice.WithTracer(trace),
		guidanceservice.WithPromptBuilder(prompt.New(prompt.WithMaxHistory(cfg.Evidence.MaxHistory))),
		guidanceservice.WithTopK(cfg.Evidence.TopK),
		guidanceservice.WithGenerationParams(cfg.Generation.MaxTokens, cfg.Generation.Temperature),
	)

	handlers := []httptransport.Registrar{
		consenthandler.New(consentLedger, log),
		guidancehandler.New(orchestrator, log),
		evidencehandler.New(lib, log),
	}

	// Ritual scheduler.
	var sched *scheduler.Scheduler
	if cfg.Ritual.Enabled {
		s, somatic, err := buildScheduler(ctx, cfg, log, trace, kafkaProducer)
		if err != nil {
			return err
		}
		sched = s
		closers = append(closers, somatic.Close)
		healthHandler.RegisterCheck("somatic_ledger", somatic.Ping)
		handlers = append(handlers, ritualhandler.New(sched, somatic, log))
	}
	handlers = append(handlers, healthHandler)

	router := httptransport.NewRouter(httptransport.Config{
		RequestTimeout: cfg.Generation.Timeout + 10*time.Second,
		MaxBodyBytes:   httputil.MaxBodySize,
	}, log, appMetrics, handlers...)
	srv := httpserver.New(cfg.Addr, router, cfg.Generation.Timeout+15*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		return httpserver.Run(gctx, srv, 10*time.Second)
	})
	if sched != nil {
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		reloadOnHangup(gctx, lib, log)
		return nil
	})

	err = g.Wait()
	log.Info("shutting down server gracefully")
	return err
}

// buildConsentStore opens the configured backend. Extra ledger options carry
// the cross-process transaction for Postgres.
func buildConsentStore(ctx context.Context, cfg config.Server, h *health.Handler, closers *[]func() error) (consentservice.Store, []consentservice.Option, error) {
	switch cfg.Consent.Store {
	case config.StorePostgres:
		pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		if pool == nil {
			return nil, nil, fmt.Errorf("CONSENT_STORE=postgres requires DATABASE_URL")
		}
		*closers = append(*closers, pool.Close)
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			return nil, nil, err
		}
		h.RegisterCheck("postgres", pool.Health)
		return consentstore.NewPostgres(pool.DB()),
			[]consentservice.Option{consentservice.WithTx(newConsentPostgresTx(pool.DB()))},
			nil
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("CONSENT_STORE=redis requires REDIS_URL")
		}
		*closers = append(*closers, client.Close)
		h.RegisterCheck("redis", func(ctx context.Context) error {
			client.RecordPoolStats()
			return client.Health(ctx)
		})
		return consentstore.NewRedis(client.Client), nil, nil
	default:
		return consentstore.New(), nil, nil
	}
}

// buildGenerator layers rate limiting and a circuit breaker over the llama
// client, or returns the canned generator when configured as static.
func buildGenerator(cfg config.GenerationConfig, log *slog.Logger) generation.Generator {
	if cfg.LlamaURL == "" || strings.EqualFold(cfg.LlamaURL, staticBackend) {
		log.Warn("no language model configured; serving canned guidance")
		return generation.Static{}
	}
	client := generation.NewLlamaClient(generation.LlamaConfig{
		BaseURL: cfg.LlamaURL,
		Timeout: cfg.Timeout,
	})
	breaker := circuit.New("llama",
		circuit.WithFailureThreshold(5),
		circuit.WithCooldown(30*time.Second),
	)
	limited := generation.WithRateLimit(client, cfg.RPS, cfg.Burst, 5*time.Second)
	return generation.WithBreaker(limited, breaker, log)
}

func buildScheduler(ctx context.Context, cfg config.Server, log *slog.Logger, trace tracer.Tracer, kafkaProducer *producer.Producer) (*scheduler.Scheduler, *ledger.Ledger, error) {
	somatic, err := ledger.Open(ctx, cfg.Ritual.LedgerPath)
	if err != nil {
		return nil, nil, err
	}
	set, err := rules.LoadFile(cfg.Ritual.RulesFile)
	if err != nil {
		_ = somatic.Close()
		return nil, nil, err
	}

	m := ritualmetrics.New()
	sinks := []sink.Sink{sink.NewFile(cfg.Ritual.OutputPath), sink.NewLedger(somatic)}
	if kafkaProducer != nil {
		sinks = append(sinks, sink.NewKafka(kafkaProducer, cfg.Ritual.Topic))
	}
	out := sink.NewMulti(func(name string, err error) {
		m.IncrementSinkFailure(name)
		log.Warn("ritual sink failed", "sink", name, "error", err)
	}, sinks...)

	sched, err := scheduler.New(signals.NewCollector(somatic, signals.WithLogger(log)), set, out,
		scheduler.WithInterval(cfg.Ritual.Interval),
		scheduler.WithLogger(log),
		scheduler.WithMetrics(m),
		scheduler.WithTracer(trace),
	)
	if err != nil {
		_ = somatic.Close()
		return nil, nil, err
	}
	log.Info("ritual scheduler configured",
		"rules", set.Len(),
		"interval", cfg.Ritual.Interval,
		"kafka", kafkaProducer != nil,
	)
	return sched, somatic, nil
}

// reloadOnHangup re-reads the evidence corpus on SIGHUP.
func reloadOnHangup(ctx context.Context, lib *library.Library, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := lib.Reload(ctx); err != nil {
				log.Warn("evidence reload failed", "error", err)
				continue
			}
			stats := lib.Stats()
			log.Info("evidence library reloaded", "modules", stats.Modules, "records", stats.Records)
		}
	}
}
