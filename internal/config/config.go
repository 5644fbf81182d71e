package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

const defaultAttemptTimeout = 3 * time.Second

// Config holds all service settings, populated from environment variables.
type Config struct {
	Locations []domain.Location

	// Forecast source. ForecastDir takes precedence over the HTTP source.
	ForecastBaseURL string
	ForecastAPIKey  string
	ForecastDir     string
	// FetchTimeout is the per-location budget; FetchAttemptTimeout bounds
	// each HTTP request within it.
	FetchTimeout        time.Duration
	FetchAttemptTimeout time.Duration
	FetchConcurrency    int
	FetchRetries        int
	FetchBackoff        time.Duration
	FetchRateLimit      int
	CacheSize           int
	CacheTTL            time.Duration

	ReduceWorkers       int
	RequireAllLocations bool

	// Artifact storage. ArtifactBucket enables the object store mirror.
	ArtifactPath   string
	ArtifactBucket string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	// Ratings topic. Publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	RunInterval     time.Duration
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	locations, err := LoadLocations()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchAttemptTimeout, err := parseAttemptTimeout(fetchTimeout)
	if err != nil {
		return nil, err
	}
	fetchBackoff, err := parsePositiveDuration("FETCH_BACKOFF", "200ms")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	runInterval, err := parsePositiveDuration("RUN_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	fetchConcurrency, err := parseNonNegativeInt("FETCH_CONCURRENCY", 0)
	if err != nil {
		return nil, err
	}
	fetchRetries, err := parseNonNegativeInt("FETCH_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	fetchRateLimit, err := parseNonNegativeInt("FETCH_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseNonNegativeInt("CACHE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	reduceWorkers, err := parseNonNegativeInt("REDUCE_WORKERS", runtime.GOMAXPROCS(0))
	if err != nil || reduceWorkers == 0 {
		return nil, errors.New("invalid REDUCE_WORKERS")
	}

	requireAll, err := parseBool("REQUIRE_ALL_LOCATIONS", false)
	if err != nil {
		return nil, err
	}
	minioSSL, err := parseBool("MINIO_USE_SSL", false)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		Locations: locations,

		ForecastBaseURL:     sharedcfg.EnvOrDefault("FORECAST_BASE_URL", "http://localhost:8081/forecasts"),
		ForecastAPIKey:      os.Getenv("FORECAST_API_KEY"),
		ForecastDir:         os.Getenv("FORECAST_DIR"),
		FetchTimeout:        fetchTimeout,
		FetchAttemptTimeout: fetchAttemptTimeout,
		FetchConcurrency:    fetchConcurrency,
		FetchRetries:        fetchRetries,
		FetchBackoff:        fetchBackoff,
		FetchRateLimit:      fetchRateLimit,
		CacheSize:           cacheSize,
		CacheTTL:            cacheTTL,

		ReduceWorkers:       reduceWorkers,
		RequireAllLocations: requireAll,

		ArtifactPath:   sharedcfg.EnvOrDefault("ARTIFACT_PATH", "data_file.json"),
		ArtifactBucket: os.Getenv("ARTIFACT_BUCKET"),
		MinioEndpoint:  sharedcfg.EnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:    minioSSL,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "location-ratings"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		RunInterval:     runInterval,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.ArtifactPath == "" {
		return nil, errors.New("ARTIFACT_PATH is required")
	}
	if cfg.ArtifactBucket != "" && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return nil, errors.New("ARTIFACT_BUCKET is set but MINIO_ACCESS_KEY or MINIO_SECRET_KEY is not")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return d, nil
}

// parseAttemptTimeout defaults to 3s capped at the per-location budget.
func parseAttemptTimeout(fetchTimeout time.Duration) (time.Duration, error) {
	if os.Getenv("FETCH_ATTEMPT_TIMEOUT") == "" {
		return min(defaultAttemptTimeout, fetchTimeout), nil
	}
	d, err := parsePositiveDuration("FETCH_ATTEMPT_TIMEOUT", "")
	if err != nil {
		return 0, err
	}
	if d > fetchTimeout {
		return 0, errors.New("invalid FETCH_ATTEMPT_TIMEOUT: exceeds FETCH_TIMEOUT")
	}
	return d, nil
}

func parseNonNegativeInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

func parseBool(name string, def bool) (bool, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("invalid " + name)
	}
	return b, nil
}
