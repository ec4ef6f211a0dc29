package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the exporter
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Object storage
	Storage StorageConfig

	// Limits export
	Export ExportConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Document number sequence
	SequenceBackend string // postgres, redis

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Backend         string // s3, gcs, local
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3-compatible endpoint override (minio, localstack)
	LocalDir        string
	PutRate         float64 // uploads per second, 0 = unlimited
	CredentialsJSON string  // GCS service account JSON
}

// ExportConfig holds the limits document settings
type ExportConfig struct {
	Sender         string        `yaml:"sender"`
	Author         string        `yaml:"author"`
	Formats        []string      `yaml:"formats"`
	Grouping       string        `yaml:"grouping"` // day, period
	RunTimeout     time.Duration `yaml:"run_timeout"`
	ContractCode   string        `yaml:"contract_code"`
	ContractFamily string        `yaml:"contract_family"`
	ProfilePath    string        `yaml:"-"`
}

// SchedulerConfig holds the cron settings of the export job
type SchedulerConfig struct {
	ExportCron    string
	LookaheadDays int
	MaxRetries    int
	RetryDelay    time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Object storage
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnv("STORAGE_BACKEND", "s3")),
			Bucket:          getEnv("STORAGE_BUCKET", "buckets3-export"),
			Prefix:          getEnv("STORAGE_PREFIX", ""),
			Region:          getEnv("STORAGE_REGION", "eu-west-3"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			LocalDir:        getEnv("STORAGE_LOCAL_DIR", "./out"),
			PutRate:         getEnvAsFloat("STORAGE_PUT_RATE", 0),
			CredentialsJSON: getEnv("GCS_CREDENTIALS_JSON", ""),
		},

		// Limits export
		Export: ExportConfig{
			Sender:         getEnv("EXPORT_SENDER", "TIGF"),
			Author:         getEnv("EXPORT_AUTHOR", "AWS"),
			Formats:        getEnvAsList("EXPORT_FORMATS", "XML,CSV"),
			Grouping:       strings.ToLower(getEnv("EXPORT_GROUPING", "day")),
			RunTimeout:     getEnvAsDuration("EXPORT_RUN_TIMEOUT", "10m"),
			ContractCode:   getEnv("EXPORT_CONTRACT_CODE", "CONTRAT"),
			ContractFamily: getEnv("EXPORT_CONTRACT_FAMILY", "SIATIC"),
			ProfilePath:    getEnv("EXPORT_PROFILE", ""),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			ExportCron:    getEnv("SCHEDULER_EXPORT_CRON", "0 0 6 * * *"),
			LookaheadDays: getEnvAsInt("SCHEDULER_LOOKAHEAD_DAYS", 1),
			MaxRetries:    getEnvAsInt("SCHEDULER_MAX_RETRIES", 3),
			RetryDelay:    getEnvAsDuration("SCHEDULER_RETRY_DELAY", "1m"),
		},

		SequenceBackend: strings.ToLower(getEnv("SEQUENCE_BACKEND", "postgres")),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// 프로필 파일이 있으면 export 섹션을 덮어씀
	if cfg.Export.ProfilePath != "" {
		if err := applyProfile(&cfg.Export, cfg.Export.ProfilePath); err != nil {
			return nil, fmt.Errorf("load export profile: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Storage.Backend {
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for backend %s", c.Storage.Backend)
		}
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR is required for backend local")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: s3, gcs, local")
	}

	if c.Export.Grouping != "day" && c.Export.Grouping != "period" {
		return fmt.Errorf("EXPORT_GROUPING must be one of: day, period")
	}

	if c.Export.Author == "" {
		return fmt.Errorf("EXPORT_AUTHOR must not be empty")
	}

	if c.SequenceBackend != "postgres" && c.SequenceBackend != "redis" {
		return fmt.Errorf("SEQUENCE_BACKEND must be one of: postgres, redis")
	}

	if c.SequenceBackend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("SEQUENCE_BACKEND=redis requires REDIS_ENABLED=true")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue string) []string {
	raw := getEnv(key, defaultValue)

	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}

	return items
}
