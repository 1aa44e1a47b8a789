package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Search engines.
const (
	EngineElasticsearch = "elasticsearch"
	EngineMemory        = "memory"
)

const minSecretLen = 32

// Config holds all configuration for the storefront server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8001"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CacheMaxAge     int           `env:"HTTP_CACHE_MAX_AGE" envDefault:"0"`

	// Record store
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseDSN  string `env:"DATABASE_DSN"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	PostgresHost string `env:"DB_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"DB_PORT" envDefault:"5432"`
	PostgresUser string `env:"DB_USER" envDefault:"storefront"`
	PostgresPass string `env:"DB_PASSWORD" envDefault:"storefront"`
	PostgresDB   string `env:"DB_NAME" envDefault:"storefront"`
	PostgresSSL  string `env:"DB_SSL_MODE" envDefault:"disable"`

	DBMaxConns           int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns           int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime    time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime    time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryThresholdMs int           `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Search index
	SearchEngine          string        `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`
	ElasticsearchURLs     []string      `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200" envSeparator:","`
	ElasticsearchIndex    string        `env:"ELASTICSEARCH_INDEX" envDefault:"products_index"`
	ElasticsearchUsername string        `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword string        `env:"ELASTICSEARCH_PASSWORD"`
	SearchBreakerTimeout  time.Duration `env:"SEARCH_BREAKER_TIMEOUT" envDefault:"30s"`
	SearchFuzziness       string        `env:"SEARCH_FUZZINESS" envDefault:"AUTO"`
	SearchMaxResults      int           `env:"SEARCH_MAX_RESULTS" envDefault:"100"`
	SearchExactMaxLen     int           `env:"SEARCH_EXACT_MAX_LEN" envDefault:"2"`
	ReindexBatchSize      int           `env:"REINDEX_BATCH_SIZE" envDefault:"500"`

	// Auth
	JWTSecret          string        `env:"JWT_SECRET"`
	JWTExpiry          time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"false"`
	AuthRateLimitRPS   float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"5"`
	TrustedProxyCIDRs  []string      `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	// Redis (token revocation)
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka (product events and index retry path)
	KafkaEnabled       bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaIndexConsumer bool     `env:"KAFKA_INDEX_CONSUMER" envDefault:"false"`
	KafkaGroupID       string   `env:"KAFKA_GROUP_ID" envDefault:"storefront-indexer"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from vars, for tests and tooling.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StoreDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres, mysql or sqlite, got %q", c.StoreDriver)
	}
	if c.StoreDriver == DriverMySQL && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for the mysql store")
	}
	switch c.SearchEngine {
	case EngineElasticsearch, EngineMemory:
	default:
		return fmt.Errorf("SEARCH_ENGINE must be elasticsearch or memory, got %q", c.SearchEngine)
	}
	if c.SearchEngine == EngineElasticsearch && len(c.ElasticsearchURLs) == 0 {
		return fmt.Errorf("ELASTICSEARCH_URL is required")
	}
	if c.SearchMaxResults < 1 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be positive, got %d", c.SearchMaxResults)
	}
	if c.SearchExactMaxLen < 0 {
		return fmt.Errorf("SEARCH_EXACT_MAX_LEN must not be negative, got %d", c.SearchExactMaxLen)
	}
	if c.ReindexBatchSize < 1 {
		return fmt.Errorf("REINDEX_BATCH_SIZE must be positive, got %d", c.ReindexBatchSize)
	}
	if !c.IsDevelopment() && len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes outside development", minSecretLen)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.AuthRateLimitRPS <= 0 || c.AuthRateLimitBurst < 1 {
		return fmt.Errorf("auth rate limit must allow at least one request")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.KafkaIndexConsumer && !c.KafkaEnabled {
		return fmt.Errorf("KAFKA_INDEX_CONSUMER requires KAFKA_ENABLED")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// SigningSecret returns the JWT secret, substituting a fixed development
// secret when none is configured in development.
func (c *Config) SigningSecret() string {
	if c.JWTSecret == "" && c.IsDevelopment() {
		return "storefront-development-secret-change-me"
	}
	return c.JWTSecret
}

// Postgres returns the pgx pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		DSN:             c.DatabaseDSN,
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
	}
}

// Gorm returns the gorm configuration for the mysql and sqlite drivers.
func (c *Config) Gorm() database.GormConfig {
	dsn := c.DatabaseDSN
	if dsn == "" && c.StoreDriver == DriverSQLite {
		dsn = "file:storefront.db?_foreign_keys=on"
	}
	return database.GormConfig{
		Driver:        c.StoreDriver,
		DSN:           dsn,
		SlowThreshold: c.SlowQueryThreshold(),
		MaxOpenConns:  int(c.DBMaxConns),
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// SlowQueryThreshold returns LOG_SLOW_QUERY_MS as a duration.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
