package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/jwebchajari/Savia/internal/handlers"
	"github.com/jwebchajari/Savia/internal/platform/auth"
	"github.com/jwebchajari/Savia/internal/platform/config"
	"github.com/jwebchajari/Savia/internal/platform/events"
	"github.com/jwebchajari/Savia/internal/platform/firebaseapp"
	pfirestore "github.com/jwebchajari/Savia/internal/platform/firestore"
	"github.com/jwebchajari/Savia/internal/platform/idempotency"
	"github.com/jwebchajari/Savia/internal/platform/observability"
	"github.com/jwebchajari/Savia/internal/platform/secrets"
	"github.com/jwebchajari/Savia/internal/pricing"
	"github.com/jwebchajari/Savia/internal/repositories"
	"github.com/jwebchajari/Savia/internal/repositories/cartstore"
	"github.com/jwebchajari/Savia/internal/repositories/rtdb"
	"github.com/jwebchajari/Savia/internal/services"
)

const idempotencyCollection = "idempotency_keys"

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)

	shutdownTelemetry, err := observability.SetupTelemetry(ctx, observability.TelemetryConfig{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: buildInfo.Version,
		Environment:    cfg.Environment,
		MetricInterval: cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		logger.Fatal("failed to initialise telemetry", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown error", zap.Error(err))
		}
	}()

	metrics, err := observability.NewMetrics(otel.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		logger.Warn("metrics disabled", zap.Error(err))
	}

	firebaseApp, err := firebaseapp.New(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase", zap.Error(err))
	}
	dbClient, err := firebaseapp.Database(ctx, firebaseApp, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise realtime database", zap.Error(err))
	}
	database := rtdb.NewFirebaseDatabase(dbClient)

	catalogRepo, err := rtdb.NewCatalogRepository(database, cfg.Catalog.ProductsPath, observability.EventLogger(logger.Named("rtdb")))
	if err != nil {
		logger.Fatal("failed to initialise catalog repository", zap.Error(err))
	}
	storeRepo, err := rtdb.NewStoreRepository(database, cfg.Catalog.StorePath)
	if err != nil {
		logger.Fatal("failed to initialise store repository", zap.Error(err))
	}

	backend, err := newCartBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise cart backend", zap.Error(err), zap.String("backend", cfg.Cart.Backend))
	}
	defer backend.close(logger)

	idempotencyLogger := observability.NewPrintfAdapter(logger.Named("idempotency"))
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	cleanupWG.Add(1)
	go func() {
		defer cleanupWG.Done()
		idempotency.RunCleanup(cleanupCtx, backend.idempotency, cfg.Idempotency.CleanupInterval, cfg.Idempotency.CleanupBatchSize, idempotencyLogger)
	}()

	publisher, stopPublisher, err := newCatalogPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise catalog publisher", zap.Error(err))
	}
	defer stopPublisher()

	location, err := cfg.Store.Location()
	if err != nil {
		logger.Fatal("invalid store time zone", zap.Error(err), zap.String("timezone", cfg.Store.TimeZone))
	}

	catalogDeps := services.CatalogServiceDeps{
		Repository: catalogRepo,
		Metrics:    metrics,
		Clock:      time.Now,
		Logger:     observability.EventLogger(logger.Named("catalog")),
	}
	if publisher != nil {
		catalogDeps.Publisher = publisher
	}
	catalogService, err := services.NewCatalogService(catalogDeps)
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	storeService, err := services.NewStoreService(services.StoreServiceDeps{
		Repository: storeRepo,
		Location:   location,
		Clock:      time.Now,
		Logger:     observability.EventLogger(logger.Named("store")),
	})
	if err != nil {
		logger.Fatal("failed to initialise store service", zap.Error(err))
	}

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Store:       backend.carts,
		Catalog:     catalogRepo,
		Metrics:     metrics,
		TTL:         cfg.Cart.TTL,
		MaxAttempts: cfg.Cart.MaxRetries,
		Clock:       time.Now,
		Logger:      observability.EventLogger(logger.Named("cart")),
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	builder := pricing.NewBuilder(
		pricing.WithCurrencyFormatter(pricing.NewMoneyFormatter(cfg.Store.Locale, cfg.Store.CurrencySymbol)),
	)
	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:   backend.carts,
		Store:   storeRepo,
		Builder: builder,
		Phone:   cfg.Store.WhatsAppPhone,
		Metrics: metrics,
		Logger:  observability.EventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	systemService, err := newSystemService(database, backend.carts, fetcher, buildInfo)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, firebaseApp, 5*time.Second)
	if err != nil {
		logger.Fatal("failed to initialise token verifier", zap.Error(err))
	}
	authn := auth.NewAuthenticator(verifier)

	idempotencyOpts := []idempotency.MiddlewareOption{
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(idempotencyLogger),
	}
	optionalKey := append(append([]idempotency.MiddlewareOption{}, idempotencyOpts...), idempotency.WithOptionalKey())
	sessionScoped := idempotency.Middleware(backend.idempotency, optionalKey...)
	adminIdempotency := idempotency.Middleware(backend.idempotency, idempotencyOpts...)

	publicHandlers := handlers.NewPublicHandlers(catalogService, storeService)
	cartHandlers := handlers.NewCartHandlers(cartService)
	checkoutHandlers := handlers.NewCheckoutHandlers(checkoutService)
	adminHandlers := handlers.NewAdminHandlers(catalogService, storeService)
	healthOpts := []handlers.HealthOption{handlers.WithHealthBuildInfo(buildInfo)}
	if systemService != nil {
		healthOpts = append(healthOpts, handlers.WithHealthSystemService(systemService))
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(traceProjectID(cfg)),
			observability.RecoveryMiddleware(logger),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithCartMiddlewares(cartHandlers.SessionMiddleware(), sessionScoped),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithCheckoutMiddlewares(handlers.SessionMiddleware(nil), sessionScoped),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithAdminMiddlewares(authn.RequireRole(auth.RoleAdmin), adminIdempotency),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr), zap.String("cartBackend", cfg.Cart.Backend))
	go func() {
		serverLogger.Info("savia api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// cartBackend pairs the cart store with the idempotency store living on the same backend.
type cartBackend struct {
	carts interface {
		repositories.CartStore
		Ping(context.Context) error
	}
	idempotency idempotency.Store
	closers     []func() error
}

func (b cartBackend) close(logger *zap.Logger) {
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			logger.Warn("cart backend close error", zap.Error(err))
		}
	}
}

func newCartBackend(ctx context.Context, cfg config.Config) (cartBackend, error) {
	switch cfg.Cart.Backend {
	case config.CartBackendRedis:
		client := cartstore.NewRedisClient(cfg.Redis)
		store, err := cartstore.NewRedisStore(client, cfg.Cart.KeyPrefix, time.Now)
		if err != nil {
			_ = client.Close()
			return cartBackend{}, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return cartBackend{}, fmt.Errorf("redis ping: %w", err)
		}
		return cartBackend{
			carts:       store,
			idempotency: idempotency.NewRedisStore(client, cfg.Cart.KeyPrefix+"idempotency:"),
			closers:     []func() error{client.Close},
		}, nil
	case config.CartBackendFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		store, err := cartstore.NewFirestoreStore(provider, cfg.Cart.Collection, time.Now)
		if err != nil {
			_ = provider.Close()
			return cartBackend{}, err
		}
		return cartBackend{
			carts:       store,
			idempotency: idempotency.NewFirestoreStore(provider, idempotencyCollection),
			closers:     []func() error{provider.Close},
		}, nil
	default:
		return cartBackend{
			carts:       cartstore.NewMemoryStore(time.Now),
			idempotency: idempotency.NewMemoryStore(),
		}, nil
	}
}

func newCatalogPublisher(ctx context.Context, cfg config.Config) (*events.PubSubPublisher, func(), error) {
	topicID := strings.TrimSpace(cfg.Events.TopicID)
	if topicID == "" {
		return nil, func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, traceProjectID(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	topic.EnableMessageOrdering = true
	publisher, err := events.NewPubSubPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return publisher, func() {
		publisher.Stop()
		_ = client.Close()
	}, nil
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["SAVIA_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["SAVIA_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSystemService(database rtdb.Database, carts interface{ Ping(context.Context) error }, fetcher *secrets.Fetcher, build services.BuildInfo) (services.SystemService, error) {
	checks := make([]repositories.DependencyCheck, 0, 3)
	if database != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:    "rtdb",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				return rtdb.Ping(ctx, database, ".info/connected")
			},
		})
	}
	if carts != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:    "cartstore",
			Timeout: time.Second,
			Check:   carts.Ping,
		})
	}
	if fetcher != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:    "secrets",
			Timeout: time.Second,
			Check:   fetcher.Check,
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: repo,
		Clock:            time.Now,
		Build:            build,
	})
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(env[key])
	}

	project := lookup("SAVIA_SECRETS_PROJECT_ID")
	if project == "" {
		project = lookup("SAVIA_FIREBASE_PROJECT_ID")
	}
	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(project),
	}
	if path, ok := env["SAVIA_SECRETS_FALLBACK_FILE"]; ok {
		opts = append(opts, secrets.WithFallbackFile(path))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// requiredSecretNames reads SAVIA_REQUIRED_SECRETS as a comma separated list of config fields.
func requiredSecretNames(env map[string]string) []string {
	raw := strings.TrimSpace(env["SAVIA_REQUIRED_SECRETS"])
	if raw == "" {
		return nil
	}
	return uniqueStrings(strings.Split(raw, ","))
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
