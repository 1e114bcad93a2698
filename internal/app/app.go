package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/smartmark/internal/auth"
	"github.com/MrSnakeDoc/smartmark/internal/config"
	"github.com/MrSnakeDoc/smartmark/internal/enrich"
	"github.com/MrSnakeDoc/smartmark/internal/gateway"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/ingest"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
	"github.com/MrSnakeDoc/smartmark/internal/realtime"
	"github.com/MrSnakeDoc/smartmark/internal/redis"
	"github.com/MrSnakeDoc/smartmark/internal/scheduler"
	"github.com/MrSnakeDoc/smartmark/internal/store"
	memorystore "github.com/MrSnakeDoc/smartmark/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/smartmark/internal/store/redis"
	sqlstore "github.com/MrSnakeDoc/smartmark/internal/store/sql"
	"github.com/MrSnakeDoc/smartmark/internal/utils"
	"github.com/MrSnakeDoc/smartmark/internal/version"
)

const (
	brokerMemory = "memory"
	brokerRedis  = "redis"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       store.BookmarkStore
	broker      realtime.Broker
	importer    *scheduler.ImportReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	a, err := build(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to start: %v", err)
		os.Exit(1)
	}
	return a
}

// build wires every component from cfg. On error whatever was opened is closed.
func build(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (a *App, err error) {
	a = &App{cfg: cfg, logger: loggerClient}
	defer func() {
		if err != nil {
			a.closeBackends()
		}
	}()

	m := metrics.New()

	// Redis carries the change feed whenever it is configured, and the
	// bookmarks too when it is the store driver. Fail fast if unavailable.
	if cfg.RedisAddr != "" {
		a.redisClient, err = redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return a, fmt.Errorf("connect to redis: %w", err)
		}
	}

	switch cfg.StoreDriver {
	case config.DriverRedis:
		a.store = redisstore.NewStore(a.redisClient)
	case config.DriverMemory:
		loggerClient.Warn("memory store selected, bookmarks are lost on restart")
		a.store = memorystore.NewStore()
	default:
		sqlStore, err := sqlstore.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return a, err
		}
		a.store = sqlStore
	}
	loggerClient.Info("bookmark store ready", logger.String("driver", cfg.StoreDriver))

	brokerKind := brokerMemory
	if a.redisClient != nil {
		brokerKind = brokerRedis
		a.broker = realtime.NewRedisBroker(a.redisClient, loggerClient, m)
	} else {
		a.broker = realtime.NewHub(loggerClient, m)
	}

	gw := gateway.New(a.store, a.broker, loggerClient)

	enricher, model := newEnricher(ctx, cfg, loggerClient, m)

	pipeline := ingest.New(ingest.Options{
		Repository:    gw,
		Enricher:      enricher,
		MinConfidence: cfg.MinDuplicateConfidence,
		MaxExisting:   cfg.MaxExistingSummaries,
		Logger:        loggerClient,
		Metrics:       m,
	})

	verifier, err := auth.NewVerifier(auth.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Cookie:   cfg.AuthCookie,
	})
	if err != nil {
		return a, err
	}

	var importTrigger chan struct{}
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured, initializing importer",
			logger.String("file", cfg.ImportFile))
		importTrigger = make(chan struct{}, 1)
		a.importer = scheduler.NewImportReloader(scheduler.ImportOptions{
			File:          cfg.ImportFile,
			Owner:         cfg.ImportOwner,
			Ingester:      pipeline,
			Logger:        loggerClient,
			Metrics:       m,
			Interval:      cfg.ImportInterval,
			Watch:         true,
			ManualTrigger: importTrigger,
		})
	} else {
		loggerClient.Info("import file not configured, homepage import disabled")
	}

	d := deps.Deps{
		Logger:              loggerClient,
		StartTime:           time.Now(),
		Version:             version.Version,
		Commit:              version.Commit,
		BuildDate:           version.BuildDate,
		GoVersion:           version.GoVersion,
		TimeNow:             time.Now,
		AllowedHosts:        cfg.AllowedHosts,
		AllowedCIDRS:        cfg.AllowedCIDRS,
		TrustProxy:          cfg.TrustProxy,
		Auth:                verifier,
		Gateway:             gw,
		Ingester:            pipeline,
		Metrics:             m,
		IngestTimeout:       cfg.IngestTimeout,
		IngestBurst:         cfg.IngestBurst,
		IngestRefillPerMin:  cfg.IngestRefillPerMin,
		StoreDriver:         cfg.StoreDriver,
		BrokerKind:          brokerKind,
		EnrichmentModel:     model,
		ImportReloadTrigger: importTrigger,
	}
	if a.importer != nil {
		d.Importer = a.importer
	}

	a.server = httpserver.New(cfg, loggerClient, d)
	return a, nil
}

// newEnricher returns the enrichment client and the model name, "" when
// every save uses fallback metadata.
func newEnricher(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics) (*enrich.Client, string) {
	opts := enrich.ClientOptions{
		MaxExisting: cfg.MaxExistingSummaries,
		Logger:      log,
		Metrics:     m,
	}
	if cfg.FetchPageContent {
		opts.Pages = enrich.NewPageFetcher(cfg.PageFetchTimeout, log)
	}

	gen, err := enrich.NewGeminiGenerator(ctx, enrich.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GeminiTimeout,
	})
	switch {
	case errors.Is(err, enrich.ErrNotConfigured):
		log.Warn("no Gemini API key configured, bookmarks will be saved with basic info")
		return enrich.NewClient(opts), ""
	case err != nil:
		log.Error("failed to initialize Gemini client, bookmarks will be saved with basic info", logger.Error(err))
		return enrich.NewClient(opts), ""
	}

	log.Info("enrichment model ready", logger.String("model", gen.Model()))
	opts.Generator = gen
	return enrich.NewClient(opts), gen.Model()
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting SmartMark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("SmartMark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if a.importer != nil {
		g.Go(func() error {
			a.logger.Info("importer started", logger.Duration("interval", a.cfg.ImportInterval))
			return a.importer.Run(gctx)
		})
	}

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		if a.importer != nil {
			a.importer.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		// Open event streams end when the broker closes their subscriptions.
		utils.CloseLogged(a.broker, "broker", a.logger)
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.closeBackends()
	if err != nil {
		return err
	}

	a.logger.Info("✅ SmartMark stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

func (a *App) closeBackends() {
	if a.broker != nil {
		utils.CloseLogged(a.broker, "broker", a.logger)
	}
	if a.store != nil {
		utils.CloseLogged(a.store, "store", a.logger)
	}
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}
}
