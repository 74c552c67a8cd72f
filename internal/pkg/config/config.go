package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Environment
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	Database DatabaseConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Events   EventsConfig
	Dedup    DedupConfig
	Merge    MergeConfig
	Reports  ReportsConfig
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // minutes
	MaxConnIdleTime int // minutes
	LogLevel        string
}

// CacheConfig holds the Redis settings used for merge locks
type CacheConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  int // seconds
	ReadTimeout  int
	WriteTimeout int
	PoolSize     int
	MinIdleConns int
}

// QueueConfig holds the asynq settings
type QueueConfig struct {
	RedisHost      string
	RedisPort      int
	RedisPassword  string
	RedisDB        int
	DialTimeout    int
	ReadTimeout    int
	WriteTimeout   int
	Concurrency    int
	StrictPriority bool
	MaxRetries     int
}

// EventsConfig holds the Kafka producer settings
type EventsConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// DedupConfig holds fuzzy matching thresholds
type DedupConfig struct {
	CustomerNameThreshold    float64
	CustomerAddressThreshold float64
	LeadNameThreshold        float64
	LeadCompanyThreshold     float64
}

// MergeConfig holds merge serialization settings
type MergeConfig struct {
	LockTTL     time.Duration
	LockTimeout time.Duration
}

// ReportsConfig holds where scan reports are written and how long they are kept
type ReportsConfig struct {
	Dir       string
	Retention time.Duration
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			slog.Debug("no .env file found, using environment variables only")
		}
	}

	return LoadFrom(viper.New())
}

// LoadFrom reads configuration from an existing viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Bind environment variables
	v.AutomaticEnv()

	config := &Config{
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
	}

	config.Database = DatabaseConfig{
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Database:        v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSLMODE"),
		MaxConnections:  v.GetInt("DB_MAX_CONNECTIONS"),
		MinConnections:  v.GetInt("DB_MIN_CONNECTIONS"),
		MaxConnLifetime: v.GetInt("DB_MAX_CONN_LIFETIME_MIN"),
		MaxConnIdleTime: v.GetInt("DB_MAX_CONN_IDLE_MIN"),
		LogLevel:        v.GetString("DB_LOG_LEVEL"),
	}

	config.Cache = CacheConfig{
		Enabled:      v.GetBool("REDIS_ENABLED"),
		Host:         v.GetString("REDIS_HOST"),
		Port:         v.GetInt("REDIS_PORT"),
		Password:     v.GetString("REDIS_PASSWORD"),
		DB:           v.GetInt("REDIS_DB"),
		DialTimeout:  v.GetInt("REDIS_DIAL_TIMEOUT"),
		ReadTimeout:  v.GetInt("REDIS_READ_TIMEOUT"),
		WriteTimeout: v.GetInt("REDIS_WRITE_TIMEOUT"),
		PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
		MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
	}

	// The queue shares the Redis server unless told otherwise
	config.Queue = QueueConfig{
		RedisHost:      v.GetString("QUEUE_REDIS_HOST"),
		RedisPort:      v.GetInt("QUEUE_REDIS_PORT"),
		RedisPassword:  v.GetString("QUEUE_REDIS_PASSWORD"),
		RedisDB:        v.GetInt("QUEUE_REDIS_DB"),
		DialTimeout:    v.GetInt("REDIS_DIAL_TIMEOUT"),
		ReadTimeout:    v.GetInt("REDIS_READ_TIMEOUT"),
		WriteTimeout:   v.GetInt("REDIS_WRITE_TIMEOUT"),
		Concurrency:    v.GetInt("WORKER_CONCURRENCY"),
		StrictPriority: v.GetBool("WORKER_STRICT_PRIORITY"),
		MaxRetries:     v.GetInt("WORKER_MAX_RETRIES"),
	}
	if config.Queue.RedisHost == "" {
		config.Queue.RedisHost = config.Cache.Host
	}
	if config.Queue.RedisPort == 0 {
		config.Queue.RedisPort = config.Cache.Port
	}
	if config.Queue.RedisPassword == "" {
		config.Queue.RedisPassword = config.Cache.Password
	}

	config.Events = EventsConfig{
		Enabled:      v.GetBool("KAFKA_ENABLED"),
		Brokers:      splitList(v.GetString("KAFKA_BROKERS")),
		Topic:        v.GetString("KAFKA_TOPIC"),
		BatchSize:    v.GetInt("KAFKA_BATCH_SIZE"),
		BatchTimeout: v.GetDuration("KAFKA_BATCH_TIMEOUT"),
		RequiredAcks: v.GetInt("KAFKA_REQUIRED_ACKS"),
		Compression:  v.GetString("KAFKA_COMPRESSION"),
	}

	config.Dedup = DedupConfig{
		CustomerNameThreshold:    v.GetFloat64("DEDUP_CUSTOMER_NAME_THRESHOLD"),
		CustomerAddressThreshold: v.GetFloat64("DEDUP_CUSTOMER_ADDRESS_THRESHOLD"),
		LeadNameThreshold:        v.GetFloat64("DEDUP_LEAD_NAME_THRESHOLD"),
		LeadCompanyThreshold:     v.GetFloat64("DEDUP_LEAD_COMPANY_THRESHOLD"),
	}

	config.Merge = MergeConfig{
		LockTTL:     v.GetDuration("MERGE_LOCK_TTL"),
		LockTimeout: v.GetDuration("MERGE_LOCK_TIMEOUT"),
	}

	config.Reports = ReportsConfig{
		Dir:       v.GetString("REPORTS_DIR"),
		Retention: v.GetDuration("REPORTS_RETENTION"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")

	// Database defaults
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "crm")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNECTIONS", 20)
	v.SetDefault("DB_MIN_CONNECTIONS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME_MIN", 30)
	v.SetDefault("DB_MAX_CONN_IDLE_MIN", 5)
	v.SetDefault("DB_LOG_LEVEL", "silent")

	// Redis defaults
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5)
	v.SetDefault("REDIS_READ_TIMEOUT", 3)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 1)

	// Worker defaults
	v.SetDefault("QUEUE_REDIS_DB", 1)
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("WORKER_STRICT_PRIORITY", false)
	v.SetDefault("WORKER_MAX_RETRIES", 3)

	// Kafka defaults
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "crm.entity-resolution")
	v.SetDefault("KAFKA_BATCH_SIZE", 100)
	v.SetDefault("KAFKA_BATCH_TIMEOUT", "1s")
	v.SetDefault("KAFKA_REQUIRED_ACKS", -1)
	v.SetDefault("KAFKA_COMPRESSION", "snappy")

	// Matching thresholds
	v.SetDefault("DEDUP_CUSTOMER_NAME_THRESHOLD", 0.85)
	v.SetDefault("DEDUP_CUSTOMER_ADDRESS_THRESHOLD", 0.85)
	v.SetDefault("DEDUP_LEAD_NAME_THRESHOLD", 0.90)
	v.SetDefault("DEDUP_LEAD_COMPANY_THRESHOLD", 0.85)

	// Merge defaults
	v.SetDefault("MERGE_LOCK_TTL", "30s")
	v.SetDefault("MERGE_LOCK_TIMEOUT", "5s")

	// Scan reports
	v.SetDefault("REPORTS_DIR", "./reports")
	v.SetDefault("REPORTS_RETENTION", "720h")
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	for name, threshold := range map[string]float64{
		"DEDUP_CUSTOMER_NAME_THRESHOLD":    c.Dedup.CustomerNameThreshold,
		"DEDUP_CUSTOMER_ADDRESS_THRESHOLD": c.Dedup.CustomerAddressThreshold,
		"DEDUP_LEAD_NAME_THRESHOLD":        c.Dedup.LeadNameThreshold,
		"DEDUP_LEAD_COMPANY_THRESHOLD":     c.Dedup.LeadCompanyThreshold,
	} {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, threshold)
		}
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}

// GetDatabaseURL constructs the PostgreSQL connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GetRedisURL constructs the Redis address
func (c *CacheConfig) GetRedisURL() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LogConfig logs the configuration (hiding sensitive data)
func (c *Config) LogConfig(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("configuration loaded",
		slog.String("environment", c.Environment),
		slog.String("database", fmt.Sprintf("%s:%d/%s", c.Database.Host, c.Database.Port, c.Database.Database)),
		slog.Bool("redis_enabled", c.Cache.Enabled),
		slog.String("redis", c.Cache.GetRedisURL()),
		slog.Int("worker_concurrency", c.Queue.Concurrency),
		slog.Bool("kafka_enabled", c.Events.Enabled),
		slog.String("kafka_topic", c.Events.Topic),
		slog.Duration("merge_lock_ttl", c.Merge.LockTTL),
		slog.String("reports_dir", c.Reports.Dir),
		slog.String("db_password", redact(c.Database.Password)),
		slog.String("redis_password", redact(c.Cache.Password)),
	)
}

func redact(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	return "[CONFIGURED]"
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
