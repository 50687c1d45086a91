package config

import (
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	valueobjects "paycore/internal/domain/value_objects"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultShutdownTimeout          = 10 * time.Second
	defaultDBReadinessTimeout       = 30 * time.Second
	defaultDBReadinessRetryInterval = 2 * time.Second
	defaultMigrationsPath           = "migrations"
	defaultWatchPollInterval        = 30 * time.Second
	defaultReorgWindow              = 24 * time.Hour
	defaultConfirmBatchSize         = 100
	defaultInvoiceTTL               = 30 * time.Minute
)

const (
	chainProvidersEnv         = "CHAIN_PROVIDERS_JSON"
	confirmationThresholdsEnv = "CONFIRMATION_THRESHOLDS_JSON"
	webhookSecretEnv          = "PROCESSOR_WEBHOOK_HMAC_SECRET"
	derivationSecretEnv       = "ADDRESS_DERIVATION_SECRET"
)

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

// ChainProvider configures one chain's data source endpoint.
type ChainProvider struct {
	URL               string  `json:"url"`
	APIKeyHeader      string  `json:"api_key_header"`
	APIKey            string  `json:"api_key"`
	TokenContract     string  `json:"token_contract"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

type Config struct {
	Port                     string
	OpenAPISpecPath          string
	ShutdownTimeout          time.Duration
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string

	ProcessorWebhookSecret string
	ProcessorAPIURL        string
	ProcessorAPIKey        string
	InvoiceTTL             time.Duration

	DerivationSecret string
	RateProviderURL  string

	WatcherEnabled         bool
	WatchPollInterval      time.Duration
	ReorgWindow            time.Duration
	ConfirmBatchSize       int
	ChainProviders         map[valueobjects.Chain]ChainProvider
	ConfirmationThresholds map[valueobjects.Chain]int64
}

func LoadConfig() (Config, *ConfigError) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_DATABASE_URL_REQUIRED",
			Message: "DATABASE_URL is required",
		}
	}
	databaseTarget, parseErr := parseDatabaseTarget(databaseURL)
	if parseErr != nil {
		return Config{}, parseErr
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	openAPISpecPath := os.Getenv("OPENAPI_SPEC_PATH")
	if openAPISpecPath == "" {
		openAPISpecPath = defaultOpenAPISpec
	}

	migrationsPath := strings.TrimSpace(os.Getenv("MIGRATIONS_PATH"))
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}

	webhookSecret := strings.TrimSpace(os.Getenv(webhookSecretEnv))
	if webhookSecret == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_WEBHOOK_SECRET_REQUIRED",
			Message: webhookSecretEnv + " is required",
		}
	}

	derivationSecret := strings.TrimSpace(os.Getenv(derivationSecretEnv))
	if derivationSecret == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_DERIVATION_SECRET_REQUIRED",
			Message: derivationSecretEnv + " is required",
		}
	}

	processorAPIURL := strings.TrimSpace(os.Getenv("PROCESSOR_API_URL"))
	processorAPIKey := strings.TrimSpace(os.Getenv("PROCESSOR_API_KEY"))
	rateProviderURL := strings.TrimSpace(os.Getenv("RATE_PROVIDER_URL"))

	invoiceTTL, ttlErr := parseDurationEnv("INVOICE_TTL", defaultInvoiceTTL)
	if ttlErr != nil {
		return Config{}, ttlErr
	}

	watcherEnabled := true
	rawWatcherEnabled := strings.TrimSpace(os.Getenv("WATCHER_ENABLED"))
	if rawWatcherEnabled != "" {
		parsed, err := strconv.ParseBool(rawWatcherEnabled)
		if err != nil {
			return Config{}, &ConfigError{
				Code:    "CONFIG_WATCHER_ENABLED_INVALID",
				Message: "WATCHER_ENABLED must be a boolean",
			}
		}
		watcherEnabled = parsed
	}

	watchPollInterval, intervalErr := parseDurationEnv("WATCH_POLL_INTERVAL", defaultWatchPollInterval)
	if intervalErr != nil {
		return Config{}, intervalErr
	}
	reorgWindow, windowErr := parseDurationEnv("REORG_WINDOW", defaultReorgWindow)
	if windowErr != nil {
		return Config{}, windowErr
	}

	confirmBatchSize := defaultConfirmBatchSize
	rawBatchSize := strings.TrimSpace(os.Getenv("CONFIRM_BATCH_SIZE"))
	if rawBatchSize != "" {
		parsed, err := strconv.Atoi(rawBatchSize)
		if err != nil || parsed <= 0 {
			return Config{}, &ConfigError{
				Code:    "CONFIG_CONFIRM_BATCH_SIZE_INVALID",
				Message: "CONFIRM_BATCH_SIZE must be a positive integer",
			}
		}
		confirmBatchSize = parsed
	}

	chainProviders, providersErr := parseChainProviders()
	if providersErr != nil {
		return Config{}, providersErr
	}
	if watcherEnabled && len(chainProviders) == 0 {
		return Config{}, &ConfigError{
			Code:    "CONFIG_CHAIN_PROVIDERS_REQUIRED",
			Message: chainProvidersEnv + " must configure at least one chain when the watcher is enabled",
		}
	}

	thresholds, thresholdsErr := parseConfirmationThresholds()
	if thresholdsErr != nil {
		return Config{}, thresholdsErr
	}

	return Config{
		Port:                     port,
		OpenAPISpecPath:          openAPISpecPath,
		ShutdownTimeout:          defaultShutdownTimeout,
		DatabaseURL:              databaseURL,
		DatabaseTarget:           databaseTarget,
		DBReadinessTimeout:       defaultDBReadinessTimeout,
		DBReadinessRetryInterval: defaultDBReadinessRetryInterval,
		MigrationsPath:           migrationsPath,
		ProcessorWebhookSecret:   webhookSecret,
		ProcessorAPIURL:          processorAPIURL,
		ProcessorAPIKey:          processorAPIKey,
		InvoiceTTL:               invoiceTTL,
		DerivationSecret:         derivationSecret,
		RateProviderURL:          rateProviderURL,
		WatcherEnabled:           watcherEnabled,
		WatchPollInterval:        watchPollInterval,
		ReorgWindow:              reorgWindow,
		ConfirmBatchSize:         confirmBatchSize,
		ChainProviders:           chainProviders,
		ConfirmationThresholds:   thresholds,
	}, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}

func parseDurationEnv(name string, fallback time.Duration) (time.Duration, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:    "CONFIG_DURATION_INVALID",
			Message: name + " must be a positive duration",
		}
	}
	return parsed, nil
}

func parseChainProviders() (map[valueobjects.Chain]ChainProvider, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(chainProvidersEnv))
	if raw == "" {
		return map[valueobjects.Chain]ChainProvider{}, nil
	}

	decoded := map[string]ChainProvider{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, &ConfigError{
			Code:    "CONFIG_CHAIN_PROVIDERS_INVALID",
			Message: chainProvidersEnv + " must be a JSON object keyed by chain",
		}
	}

	providers := map[valueobjects.Chain]ChainProvider{}
	for rawChain, provider := range decoded {
		chain, appErr := valueobjects.ParseChain(rawChain)
		if appErr != nil {
			return nil, &ConfigError{
				Code:     "CONFIG_CHAIN_PROVIDERS_CHAIN_UNSUPPORTED",
				Message:  chainProvidersEnv + " references an unsupported chain",
				Metadata: map[string]string{"chain": rawChain},
			}
		}
		if strings.TrimSpace(provider.URL) == "" {
			return nil, &ConfigError{
				Code:     "CONFIG_CHAIN_PROVIDER_URL_MISSING",
				Message:  chainProvidersEnv + " entries require a url",
				Metadata: map[string]string{"chain": rawChain},
			}
		}
		providers[chain] = provider
	}
	return providers, nil
}

func parseConfirmationThresholds() (map[valueobjects.Chain]int64, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(confirmationThresholdsEnv))
	if raw == "" {
		return map[valueobjects.Chain]int64{}, nil
	}

	decoded := map[string]int64{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, &ConfigError{
			Code:    "CONFIG_CONFIRMATION_THRESHOLDS_INVALID",
			Message: confirmationThresholdsEnv + " must be a JSON object of chain to integer",
		}
	}

	thresholds := map[valueobjects.Chain]int64{}
	for rawChain, threshold := range decoded {
		chain, appErr := valueobjects.ParseChain(rawChain)
		if appErr != nil {
			return nil, &ConfigError{
				Code:     "CONFIG_CONFIRMATION_THRESHOLDS_CHAIN_UNSUPPORTED",
				Message:  confirmationThresholdsEnv + " references an unsupported chain",
				Metadata: map[string]string{"chain": rawChain},
			}
		}
		if threshold <= 0 {
			return nil, &ConfigError{
				Code:     "CONFIG_CONFIRMATION_THRESHOLD_INVALID",
				Message:  confirmationThresholdsEnv + " thresholds must be positive",
				Metadata: map[string]string{"chain": rawChain},
			}
		}
		thresholds[chain] = threshold
	}
	return thresholds, nil
}
