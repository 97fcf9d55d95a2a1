package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SearchFailureAbort = "abort"
	SearchFailureSkip  = "skip"
)

type Config struct {
	LogLevel   string
	Run        RunConfig
	Search     SearchConfig
	Screenshot ScreenshotConfig
	Download   DownloadConfig
	RateLimit  RateLimitConfig
	S3         S3Config
	Dynamo     DynamoConfig
	CloudWatch CloudWatchConfig
	NATS       NATSConfig
	Redis      RedisConfig
	Prometheus PrometheusConfig
	Tracing    TracingConfig
}

type RunConfig struct {
	EventsFile          string
	OutputDir           string
	SearchFailurePolicy string
}

type SearchConfig struct {
	APIKey   string
	Endpoint string
	Count    int
	// Timeout of zero leaves the search call unbounded.
	Timeout time.Duration
}

type ScreenshotConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

type DownloadConfig struct {
	Timeout      time.Duration
	MaxBytes     int64
	VerifyImages bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	URLMode         string
	PresignedTTL    time.Duration
}

type DynamoConfig struct {
	Enabled         bool
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	TTLDays         int
}

type CloudWatchConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	LogsEnabled   bool
	LogGroupName  string
	LogStreamName string

	MetricsEnabled   bool
	MetricsNamespace string
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
	StreamName    string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type PrometheusConfig struct {
	PushgatewayURL string
	JobName        string
}

type TracingConfig struct {
	Enabled bool
	Stdout  bool
}

// Load reads the environment and validates everything a fetch run needs.
func Load() (*Config, error) {
	cfg, err := LoadEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnv parses the environment without checking the API credentials.
// Commands that only talk to the optional backends use it directly.
func LoadEnv() (*Config, error) {
	// .env is optional; real deployments inject secrets through the environment.
	_ = godotenv.Load()

	searchTimeout, err := parseDuration("SEARCH_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}
	screenshotTimeout, err := parseDuration("SCREENSHOT_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := parseDuration("DOWNLOAD_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	presignedTTL, err := parseDuration("S3_PRESIGNED_TTL", "5m")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("REDIS_TTL", "24h")
	if err != nil {
		return nil, err
	}

	searchCount, err := getEnvInt("SEARCH_COUNT", 3)
	if err != nil {
		return nil, err
	}
	maxDownloadMB, err := getEnvInt("DOWNLOAD_MAX_MB", 25)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getEnvInt("API_RATE_LIMIT_BURST", 1)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	ttlDays, err := getEnvInt("DYNAMO_TTL_DAYS", 30)
	if err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(getEnv("API_RATE_LIMIT_RPS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT_RPS: %w", err)
	}

	awsRegion := getEnv("AWS_REGION", "us-east-1")

	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Run: RunConfig{
			EventsFile:          getEnv("EVENTS_FILE", "events_2024_corrected.json"),
			OutputDir:           getEnv("OUTPUT_DIR", "output"),
			SearchFailurePolicy: strings.ToLower(getEnv("SEARCH_FAILURE_POLICY", SearchFailureAbort)),
		},
		Search: SearchConfig{
			APIKey:   getEnvFirst("SEARCH_API_KEY", "BING_API_KEY"),
			Endpoint: getEnvFirst("SEARCH_API_ENDPOINT", "BING_API_ENDPOINT"),
			Count:    searchCount,
			Timeout:  searchTimeout,
		},
		Screenshot: ScreenshotConfig{
			APIKey:   getEnv("SCREENSHOT_API_KEY", ""),
			Endpoint: getEnv("SCREENSHOT_API_ENDPOINT", "https://shot.screenshotapi.net/screenshot"),
			Timeout:  screenshotTimeout,
		},
		Download: DownloadConfig{
			Timeout:      downloadTimeout,
			MaxBytes:     int64(maxDownloadMB) * 1024 * 1024,
			VerifyImages: getEnvBool("DOWNLOAD_VERIFY_IMAGES", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             rateBurst,
		},
		S3: S3Config{
			Enabled:         getEnvBool("S3_ENABLED", false),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", awsRegion),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "events"),
			URLMode:         getEnv("S3_URL_MODE", "presigned"),
			PresignedTTL:    presignedTTL,
		},
		Dynamo: DynamoConfig{
			Enabled:         getEnvBool("DYNAMO_ENABLED", false),
			TableName:       getEnv("DYNAMO_TABLE_ARTIFACTS", "event_artifacts"),
			Region:          getEnv("DYNAMO_REGION", awsRegion),
			Endpoint:        getEnv("DYNAMO_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMO_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMO_SECRET_ACCESS_KEY", ""),
			TTLDays:         ttlDays,
		},
		CloudWatch: CloudWatchConfig{
			Region:           getEnv("CLOUDWATCH_REGION", awsRegion),
			Endpoint:         getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:      getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:  getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			LogsEnabled:      getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:     getEnv("CLOUDWATCH_LOG_GROUP", "/event-media-fetcher"),
			LogStreamName:    getEnv("CLOUDWATCH_LOG_STREAM", defaultLogStream()),
			MetricsEnabled:   getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			MetricsNamespace: getEnv("CLOUDWATCH_METRICS_NAMESPACE", "EventMediaFetcher"),
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "media"),
			StreamName:    getEnv("NATS_STREAM", "MEDIA"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      cacheTTL,
		},
		Prometheus: PrometheusConfig{
			PushgatewayURL: getEnv("PROMETHEUS_PUSHGATEWAY_URL", ""),
			JobName:        getEnv("PROMETHEUS_JOB_NAME", "event_media_fetcher"),
		},
		Tracing: TracingConfig{
			Enabled: getEnvBool("TRACING_ENABLED", false),
			Stdout:  getEnvBool("TRACING_STDOUT", false),
		},
	}

	return cfg, nil
}

// Validate checks the secrets and settings the run cannot start without.
func (c *Config) Validate() error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(c.Search.APIKey) == "" {
		missing = append(missing, "SEARCH_API_KEY")
	}
	if strings.TrimSpace(c.Search.Endpoint) == "" {
		missing = append(missing, "SEARCH_API_ENDPOINT")
	}
	if strings.TrimSpace(c.Screenshot.APIKey) == "" {
		missing = append(missing, "SCREENSHOT_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ","))
	}

	if c.Search.Count <= 0 {
		return fmt.Errorf("SEARCH_COUNT must be positive")
	}
	if c.Download.Timeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT must be positive")
	}
	if c.Search.Timeout < 0 || c.Screenshot.Timeout < 0 {
		return fmt.Errorf("SEARCH_TIMEOUT and SCREENSHOT_TIMEOUT must not be negative")
	}

	switch c.Run.SearchFailurePolicy {
	case SearchFailureAbort, SearchFailureSkip:
	default:
		return fmt.Errorf("invalid SEARCH_FAILURE_POLICY: %s", c.Run.SearchFailurePolicy)
	}

	if c.S3.Enabled && strings.TrimSpace(c.S3.Bucket) == "" {
		return fmt.Errorf("S3_BUCKET is required when S3_ENABLED=true")
	}

	return nil
}

func defaultLogStream() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return host + "-" + time.Now().UTC().Format("20060102")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFirst(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
