package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile              = ".env"
	defaultPort                 = "8080"
	defaultReadTimeout          = 15 * time.Second
	defaultWriteTimeout         = 30 * time.Second
	defaultIdleTimeout          = 120 * time.Second
	defaultEnvironment          = "local"
	defaultProductsPath         = "products"
	defaultStorePath            = "local/datosComerciales"
	defaultCartBackend          = CartBackendMemory
	defaultCartTTL              = 3 * time.Hour
	defaultCartKeyPrefix        = "savia:cart:"
	defaultCartCollection       = "carts"
	defaultCartMaxRetries       = 5
	defaultRedisDB              = 0
	defaultTimeZone             = "America/Argentina/Buenos_Aires"
	defaultLocale               = "es-AR"
	defaultCurrencySymbol       = "$"
	defaultServiceName          = "savia-api"
	defaultMetricInterval       = 60 * time.Second
	defaultIdempotencyHeader    = "Idempotency-Key"
	defaultIdempotencyTTL       = 24 * time.Hour
	defaultIdempotencyInterval  = time.Hour
	defaultIdempotencyBatchSize = 200
)

// Cart store backends.
const (
	CartBackendMemory    = "memory"
	CartBackendRedis     = "redis"
	CartBackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Firebase    FirebaseConfig
	Firestore   FirestoreConfig
	Catalog     CatalogConfig
	Cart        CartConfig
	Redis       RedisConfig
	Store       StoreConfig
	Events      EventsConfig
	Telemetry   TelemetryConfig
	Idempotency IdempotencyConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
	DatabaseURL     string
}

// FirestoreConfig stores database parameters for the Firestore cart backend.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// CatalogConfig points at the Realtime Database paths holding products and store data.
type CatalogConfig struct {
	ProductsPath string
	StorePath    string
}

// CartConfig selects and tunes the cart store.
type CartConfig struct {
	Backend    string
	TTL        time.Duration
	KeyPrefix  string
	Collection string
	MaxRetries int
}

// RedisConfig configures the Redis cart backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StoreConfig holds storefront presentation settings.
type StoreConfig struct {
	TimeZone       string
	Locale         string
	CurrencySymbol string
	WhatsAppPhone  string
}

// EventsConfig configures catalog change notifications.
type EventsConfig struct {
	TopicID string
}

// TelemetryConfig enables OTLP export when an endpoint is present.
type TelemetryConfig struct {
	OTLPEndpoint   string
	Insecure       bool
	ServiceName    string
	MetricInterval time.Duration
}

// IdempotencyConfig controls idempotency middleware behaviour.
type IdempotencyConfig struct {
	Header           string
	TTL              time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets failed to resolve.
type MissingSecretsError struct {
	names []string
}

// Error implements the error interface.
func (e *MissingSecretsError) Error() string {
	if e == nil || len(e.names) == 0 {
		return "missing required secrets"
	}
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(e.RedactedNames(), ", "))
}

// RedactedNames returns hashed identifiers safe for logs.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, redactSecretName(name))
	}
	sort.Strings(out)
	return out
}

// Names returns the underlying secret identifiers.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.names))
	copy(out, e.names)
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets the resolver used for sm:// and secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks config fields (e.g. "Redis.Password") as mandatory secrets.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// EnvironmentValues returns the effective environment after applying the same precedence
// as Load (dotenv < OS env < explicit env map), so dependencies such as the secret
// fetcher can be initialised before Load runs.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := newLoaderOptions(opts)

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(dotEnvValues))
	for key, value := range dotEnvValues {
		values[key] = value
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[strings.TrimSpace(key)] = value
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "SAVIA_ENVIRONMENT", defaultEnvironment)),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "SAVIA_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SAVIA_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SAVIA_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SAVIA_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "SAVIA_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "SAVIA_FIREBASE_CREDENTIALS_FILE", ""),
			CredentialsJSON: stringWithDefault(lookup, "SAVIA_FIREBASE_CREDENTIALS_JSON", ""),
			DatabaseURL:     stringWithDefault(lookup, "SAVIA_FIREBASE_DATABASE_URL", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "SAVIA_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "SAVIA_FIRESTORE_EMULATOR_HOST", ""),
		},
		Catalog: CatalogConfig{
			ProductsPath: stringWithDefault(lookup, "SAVIA_CATALOG_PRODUCTS_PATH", defaultProductsPath),
			StorePath:    stringWithDefault(lookup, "SAVIA_CATALOG_STORE_PATH", defaultStorePath),
		},
		Cart: CartConfig{
			Backend:    strings.ToLower(stringWithDefault(lookup, "SAVIA_CART_BACKEND", defaultCartBackend)),
			TTL:        durationWithDefault(lookup, "SAVIA_CART_TTL", defaultCartTTL),
			KeyPrefix:  stringWithDefault(lookup, "SAVIA_CART_KEY_PREFIX", defaultCartKeyPrefix),
			Collection: stringWithDefault(lookup, "SAVIA_CART_COLLECTION", defaultCartCollection),
			MaxRetries: intWithDefault(lookup, "SAVIA_CART_MAX_RETRIES", defaultCartMaxRetries),
		},
		Redis: RedisConfig{
			Addr:     stringWithDefault(lookup, "SAVIA_REDIS_ADDR", ""),
			Password: stringWithDefault(lookup, "SAVIA_REDIS_PASSWORD", ""),
			DB:       intWithDefault(lookup, "SAVIA_REDIS_DB", defaultRedisDB),
		},
		Store: StoreConfig{
			TimeZone:       stringWithDefault(lookup, "SAVIA_STORE_TIMEZONE", defaultTimeZone),
			Locale:         stringWithDefault(lookup, "SAVIA_STORE_LOCALE", defaultLocale),
			CurrencySymbol: stringWithDefault(lookup, "SAVIA_STORE_CURRENCY_SYMBOL", defaultCurrencySymbol),
			WhatsAppPhone:  digitsOnly(stringWithDefault(lookup, "SAVIA_STORE_WHATSAPP_PHONE", "")),
		},
		Events: EventsConfig{
			TopicID: stringWithDefault(lookup, "SAVIA_EVENTS_TOPIC", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint:   stringWithDefault(lookup, "SAVIA_OTLP_ENDPOINT", ""),
			Insecure:       boolWithDefault(lookup, "SAVIA_OTLP_INSECURE", false),
			ServiceName:    stringWithDefault(lookup, "SAVIA_SERVICE_NAME", defaultServiceName),
			MetricInterval: durationWithDefault(lookup, "SAVIA_OTLP_METRIC_INTERVAL", defaultMetricInterval),
		},
		Idempotency: IdempotencyConfig{
			Header:           stringWithDefault(lookup, "SAVIA_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:              durationWithDefault(lookup, "SAVIA_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			CleanupInterval:  durationWithDefault(lookup, "SAVIA_IDEMPOTENCY_CLEANUP_INTERVAL", defaultIdempotencyInterval),
			CleanupBatchSize: intWithDefault(lookup, "SAVIA_IDEMPOTENCY_CLEANUP_BATCH", defaultIdempotencyBatchSize),
		},
	}

	// Firestore project defaults to Firebase project when unspecified.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}

	resolvedSecrets := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"Firebase.CredentialsJSON", &cfg.Firebase.CredentialsJSON},
		{"Redis.Password", &cfg.Redis.Password},
	}
	for _, target := range secretFields {
		resolved, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = resolved
		resolvedSecrets[target.name] = strings.TrimSpace(resolved)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	if missing := findMissingSecrets(options.requiredSecrets, resolvedSecrets); missing != nil {
		return Config{}, missing
	}

	return cfg, nil
}

// Location resolves the configured store time zone.
func (c StoreConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	normalized := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Firebase.ProjectID == "" {
		missing = append(missing, "Firebase.ProjectID")
	}
	if cfg.Firebase.DatabaseURL == "" {
		missing = append(missing, "Firebase.DatabaseURL")
	}
	if strings.TrimSpace(cfg.Catalog.ProductsPath) == "" {
		missing = append(missing, "Catalog.ProductsPath")
	}
	if strings.TrimSpace(cfg.Catalog.StorePath) == "" {
		missing = append(missing, "Catalog.StorePath")
	}

	switch cfg.Cart.Backend {
	case CartBackendMemory:
	case CartBackendRedis:
		if cfg.Redis.Addr == "" {
			missing = append(missing, "Redis.Addr")
		}
	case CartBackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
		if strings.TrimSpace(cfg.Cart.Collection) == "" {
			missing = append(missing, "Cart.Collection")
		}
	default:
		missing = append(missing, "Cart.Backend")
	}
	if cfg.Cart.TTL <= 0 {
		missing = append(missing, "Cart.TTL")
	}
	if cfg.Cart.MaxRetries <= 0 {
		missing = append(missing, "Cart.MaxRetries")
	}

	if _, err := cfg.Store.Location(); err != nil {
		missing = append(missing, "Store.TimeZone")
	}

	if strings.TrimSpace(cfg.Idempotency.Header) == "" {
		missing = append(missing, "Idempotency.Header")
	}
	if cfg.Idempotency.TTL <= 0 {
		missing = append(missing, "Idempotency.TTL")
	}
	if cfg.Idempotency.CleanupInterval <= 0 {
		missing = append(missing, "Idempotency.CleanupInterval")
	}
	if cfg.Idempotency.CleanupBatchSize <= 0 {
		missing = append(missing, "Idempotency.CleanupBatchSize")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	var names []string
	seen := make(map[string]struct{})
	for _, name := range required {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		if resolved[trimmed] != "" {
			continue
		}
		names = append(names, trimmed)
	}
	if len(names) == 0 {
		return nil
	}
	return &MissingSecretsError{names: names}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	if _, err := os.Stat(absPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	values, err := godotenv.Read(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func digitsOnly(value string) string {
	var sb strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
