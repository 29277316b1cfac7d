// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sponsorloop-workers/internal/api"
	"sponsorloop-workers/internal/common/auth"
	"sponsorloop-workers/internal/common/aws"
	"sponsorloop-workers/internal/common/camunda"
	"sponsorloop-workers/internal/common/config"
	"sponsorloop-workers/internal/common/database"
	"sponsorloop-workers/internal/common/events"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/common/observability"
	"sponsorloop-workers/internal/common/validation"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
	"sponsorloop-workers/internal/profilestore"
	"sponsorloop-workers/pkg/registry"

	qp "sponsorloop-workers/internal/workers/data-access/query-profiles"
	nm "sponsorloop-workers/internal/workers/communication/notify-matches"
	amr "sponsorloop-workers/internal/workers/marketplace/apply-match-ranking"
	cms "sponsorloop-workers/internal/workers/marketplace/calculate-match-score"
	fm "sponsorloop-workers/internal/workers/marketplace/find-matches"
	psq "sponsorloop-workers/internal/workers/marketplace/parse-search-query"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// backends holds the connections opened for the configured profile store.
type backends struct {
	pg    *database.PostgresClient
	es    *database.ElasticsearchClient
	redis *database.RedisClient
}

func (b *backends) close(log *zap.Logger) {
	if b.pg != nil {
		if err := b.pg.Close(); err != nil {
			log.Error("Error closing PostgreSQL", zap.Error(err))
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}
}

func main() {
	bootLog := logger.New("info", "console", "stdout")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("profileStore", cfg.ProfileStore.Backend),
		zap.Bool("camunda", cfg.Camunda.Enabled),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := database.NewHealthChecker()

	conns, err := openBackends(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("backend connection failed", zap.Error(err))
	}
	defer conns.close(zapLog)
	if conns.pg != nil {
		health.Register("postgres", conns.pg)
	}
	if conns.es != nil {
		health.Register("elasticsearch", conns.es)
	}
	if conns.redis != nil {
		health.Register("redis", conns.redis)
	}

	store, writer, refresher, err := buildStore(ctx, cfg, conns, log)
	if err != nil {
		zapLog.Fatal("profile store init failed", zap.Error(err))
	}
	if refresher != nil {
		refresher.Start()
		defer refresher.Stop()
	}

	bus, err := buildBus(cfg, log, health)
	if err != nil {
		zapLog.Fatal("event bus init failed", zap.Error(err))
	}
	defer bus.Close()

	var (
		metricsSource auth.MetricsSource
		rdb           *redis.Client
	)
	if conns.redis != nil {
		rdb = conns.redis.Client
	}
	if conns.pg != nil {
		metricsSource = profilestore.NewPostgresStore(conns.pg.DB)
	}
	resolver := auth.NewViewerResolver(
		auth.NewKeycloakClient(cfg.Auth.Keycloak),
		metricsSource,
		rdb,
		time.Duration(cfg.Auth.MetricsCacheTTL)*time.Second,
		log,
	)

	engine := matching.NewEngine(newStrategy(cfg.Matching.Seed))

	// --- Workers ---
	var zeebeClient zbc.Client
	if cfg.Camunda.Enabled {
		zeebeClient, err = camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		health.Register("zeebe", database.PingerFunc(func(ctx context.Context) error {
			return camunda.HealthCheck(ctx, zeebeClient, config.GetDuration(cfg.Camunda.RequestTimeout))
		}))

		reg, err := registry.LoadRegistry(cfg.Registry.Path)
		if err != nil {
			zapLog.Fatal("activity registry load failed", zap.Error(err))
		}
		rt := camunda.NewRuntime(validation.NewValidator(reg), obs, log)

		jobs, err := buildJobs(ctx, cfg, jobDeps{
			store:    store,
			engine:   engine,
			bus:      bus,
			obs:      obs,
			resolver: resolver,
		}, log)
		if err != nil {
			zapLog.Fatal("worker init failed", zap.Error(err))
		}

		var workers []worker.JobWorker
		for _, job := range jobs {
			if !config.IsWorkerEnabled(cfg, job.taskType) {
				zapLog.Info("worker disabled", zap.String("taskType", job.taskType))
				continue
			}
			wcfg := workerConfig(cfg, reg, job.taskType)
			workers = append(workers, camunda.StartWorker(zeebeClient, job.taskType, wcfg, rt, job.fn))
		}
		defer func() {
			for _, w := range workers {
				w.Close()
			}
		}()
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	handler := api.NewHandler(api.Dependencies{
		Store:         store,
		Writer:        writer,
		Engine:        engine,
		Resolver:      resolver,
		Bus:           bus,
		Health:        health,
		Observability: obs,
		Matching:      cfg.Matching,
		Logger:        log,
	})
	server := api.NewServer(cfg.Server, api.NewRouter(handler))

	go func() {
		zapLog.Info("HTTP API listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP API failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP API", zap.Error(err))
	}
	if zeebeClient != nil {
		if err := zeebeClient.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func openBackends(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*backends, error) {
	b := &backends{}

	if cfg.ProfileStore.Backend == config.BackendPostgres {
		err := retryWithBackoff(func() error {
			var err error
			b.pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return b.pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		if err := b.pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.ProfileStore.Backend == config.BackendElasticsearch {
		err := retryWithBackoff(func() error {
			var err error
			b.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return b.es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		if err := b.es.EnsureIndex(ctx, cfg.ProfileStore.Index); err != nil {
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	if cfg.Database.Redis.Address != "" {
		b.redis = database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return b.redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Redis connected successfully")
	}

	return b, nil
}

// buildStore layers the configured backend under the optional Redis
// snapshot cache. writer is nil when the chain cannot accept registrations.
func buildStore(ctx context.Context, cfg *config.Config, b *backends, log logger.Logger) (profilestore.Store, profilestore.Writer, *profilestore.Refresher, error) {
	var base profilestore.ReadWriter
	switch cfg.ProfileStore.Backend {
	case config.BackendPostgres:
		base = profilestore.NewPostgresStore(b.pg.DB)
	case config.BackendElasticsearch:
		base = profilestore.NewElasticsearchStore(b.es.Client, cfg.ProfileStore.Index)
	default:
		base = profilestore.NewMemoryStore()
	}

	if cfg.ProfileStore.SeedPath != "" {
		seed, err := profilestore.LoadSeed(cfg.ProfileStore.SeedPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := seedStore(ctx, base, seed); err != nil {
			return nil, nil, nil, err
		}
		log.Info("Profile seed loaded", map[string]interface{}{"profiles": len(seed)})
	}

	if !cfg.ProfileStore.CacheEnabled {
		return base, base, nil, nil
	}

	cached := profilestore.NewCachedStore(base, b.redis.Client, cfg.ProfileStore.CacheTTLDuration(), log)
	if cfg.ProfileStore.RefreshSchedule == "" {
		return cached, cached, nil, nil
	}
	refresher, err := profilestore.NewRefresher(cached, cfg.ProfileStore.RefreshSchedule, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cached, cached, refresher, nil
}

// seedStore registers seed profiles, skipping ones already present so a
// restart against a persistent backend is harmless.
func seedStore(ctx context.Context, w profilestore.ReadWriter, seed []models.Profile) error {
	if mem, ok := w.(*profilestore.MemoryStore); ok {
		return mem.Seed(ctx, seed)
	}
	for _, p := range seed {
		if _, err := w.Create(ctx, p); err != nil && !errors.Is(err, profilestore.ErrDuplicate) {
			return fmt.Errorf("seed profile %s: %w", p.ID, err)
		}
	}
	return nil
}

func buildBus(cfg *config.Config, log logger.Logger, health *database.HealthChecker) (events.Bus, error) {
	if cfg.Messaging.NATS.URL == "" {
		return events.NewMemoryBus(), nil
	}
	bus, err := events.NewNATSBus(cfg.Messaging.NATS, log)
	if err != nil {
		return nil, err
	}
	health.Register("nats", bus)
	return bus, nil
}

func newStrategy(seed uint64) matching.Strategy {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return matching.NewRandomStrategy(seed)
}

type jobDeps struct {
	store    profilestore.Store
	engine   *matching.Engine
	bus      events.Bus
	obs      *observability.Observability
	resolver *auth.ViewerResolver
}

type job struct {
	taskType string
	fn       camunda.JobFunc
}

func buildJobs(ctx context.Context, cfg *config.Config, deps jobDeps, log logger.Logger) ([]job, error) {
	var (
		email aws.EmailSender
		sms   aws.SMSSender
	)
	notifyCfg := nm.NewConfig(cfg.Notifications)
	if config.IsWorkerEnabled(cfg, nm.TaskType) {
		if notifyCfg.EmailEnabled {
			client, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
			if err != nil {
				return nil, fmt.Errorf("create SES client: %w", err)
			}
			email = client
		}
		if notifyCfg.SMSEnabled {
			client, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SMS.SenderID)
			if err != nil {
				return nil, fmt.Errorf("create SNS client: %w", err)
			}
			sms = client
		}
	}

	return []job{
		{psq.TaskType, psq.NewHandler(psq.NewConfig(cfg.Matching), log).HandleJob},
		{qp.TaskType, qp.NewHandler(qp.LoadConfig(), deps.store, log).HandleJob},
		{cms.TaskType, cms.NewHandler(cms.LoadConfig(), deps.engine.Scorer(), deps.resolver, log).HandleJob},
		{amr.TaskType, amr.NewHandler(amr.NewConfig(cfg.Matching), log).HandleJob},
		{fm.TaskType, fm.NewHandler(fm.NewConfig(cfg.Matching), fm.Dependencies{
			Store:         deps.store,
			Engine:        deps.engine,
			Bus:           deps.bus,
			Observability: deps.obs,
		}, log).HandleJob},
		{nm.TaskType, nm.NewHandler(notifyCfg, email, sms, log).HandleJob},
	}, nil
}

// workerConfig prefers an explicit workers entry and otherwise takes the
// timeout the activity registry declares.
func workerConfig(cfg *config.Config, reg *registry.ActivityRegistry, taskType string) config.WorkerConfig {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	if _, explicit := cfg.Workers[taskType]; explicit {
		return wcfg
	}
	wcfg.Timeout = int(reg.TimeoutOf(taskType, config.GetDuration(wcfg.Timeout)).Milliseconds())
	return wcfg
}
