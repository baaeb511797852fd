package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	maxBatchSize = 1000

	defaultBatchSize     = 50
	defaultEvalCacheSize = 1000
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Compute platform configuration. When enabled, coefficient tables are
	// fetched from the platform at startup and Tcorr statistics enrichment
	// runs per scene.
	PlatformURL     string
	PlatformToken   string
	PlatformEnabled bool
	PlatformTimeout time.Duration
	EvalCacheSize   int

	// Coefficient table sources. Refs name platform feature tables; paths
	// name local JSON files and take precedence when set.
	SceneTableRef   string
	ClimatologyRef  string
	SceneTablePath  string
	ClimatologyPath string

	// Fallback coefficients. FixedTcorr, when set, overrides the whole
	// fallback chain.
	DefaultTcorr float64
	FixedTcorr   *float64

	// Model parameters.
	TmaxSource     string
	DTSource       string
	ElevSource     string
	DTMin          float64
	DTMax          float64
	TdiffThreshold float64
	ELRFlag        bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	platformTimeout, err := parsePositiveDuration("PLATFORM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parsePositiveDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	defaultTcorr, err := parseFloat("DEFAULT_TCORR", 0.978)
	if err != nil {
		return nil, err
	}

	fixedTcorr, err := parseOptionalFloat("FIXED_TCORR")
	if err != nil {
		return nil, err
	}

	dtMin, err := parseFloat("DT_MIN", 6)
	if err != nil {
		return nil, err
	}
	dtMax, err := parseFloat("DT_MAX", 25)
	if err != nil {
		return nil, err
	}
	tdiff, err := parseFloat("TDIFF_THRESHOLD", 15)
	if err != nil {
		return nil, err
	}

	platformToken := os.Getenv("PLATFORM_TOKEN")
	platformEnabled := platformToken != ""
	if v := os.Getenv("PLATFORM_ENABLED"); v != "" {
		platformEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "landsat-scene-events"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "ssebop-tcorr-records"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "ssebop-tcorr-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		PlatformURL:     envOrDefault("PLATFORM_URL", "https://compute.example.com"),
		PlatformToken:   platformToken,
		PlatformEnabled: platformEnabled,
		PlatformTimeout: platformTimeout,
		EvalCacheSize:   parsePositiveInt("EVAL_CACHE_SIZE", defaultEvalCacheSize),

		SceneTableRef:   envOrDefault("SCENE_TABLE_REF", "tcorr/scene_v1"),
		ClimatologyRef:  envOrDefault("CLIMATOLOGY_REF", "tcorr/month_v1"),
		SceneTablePath:  os.Getenv("SCENE_TABLE_PATH"),
		ClimatologyPath: os.Getenv("CLIMATOLOGY_PATH"),

		DefaultTcorr: defaultTcorr,
		FixedTcorr:   fixedTcorr,

		TmaxSource:     envOrDefault("TMAX_SOURCE", "topowx_median_v0"),
		DTSource:       envOrDefault("DT_SOURCE", "daymet_median_v1"),
		ElevSource:     envOrDefault("ELEV_SOURCE", "srtm"),
		DTMin:          dtMin,
		DTMax:          dtMax,
		TdiffThreshold: tdiff,
		ELRFlag:        os.Getenv("ELR_FLAG") == "true",
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.PlatformEnabled && cfg.PlatformToken == "" {
		return nil, errors.New("PLATFORM_ENABLED is true but PLATFORM_TOKEN is not set")
	}
	if cfg.DefaultTcorr <= 0 {
		return nil, errors.New("DEFAULT_TCORR must be positive")
	}
	if cfg.DTMin > cfg.DTMax {
		return nil, errors.New("DT_MIN must not exceed DT_MAX")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	s := os.Getenv("BATCH_SIZE")
	if s == "" {
		return defaultBatchSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxBatchSize {
		return 0, fmt.Errorf("BATCH_SIZE must be between 1 and %d", maxBatchSize)
	}
	return n, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseOptionalFloat(key string) (*float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &v, nil
}
