package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the upload broker.
type Config struct {
	// Service Configuration
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"upload-broker"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"learnhub"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort         int           `env:"UPLOAD_API_PORT" envDefault:"8290"`
	LogLevel         string        `env:"UPLOAD_LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"UPLOAD_LOG_FORMAT" envDefault:"json"`
	EnableTracing    bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTLPHeaders      string        `env:"OTEL_EXPORTER_OTLP_HEADERS" envDefault:""`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (optional). Only the session janitor ledger lives here.
	DatabaseURL    string        `env:"DB_POSTGRESQL_WRITE_DSN"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"5"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"UPLOAD_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "minio"

	// S3 Storage Configuration
	S3Endpoint       string `env:"UPLOAD_S3_ENDPOINT"`
	S3PublicEndpoint string `env:"UPLOAD_S3_PUBLIC_ENDPOINT"`
	S3Region         string `env:"UPLOAD_S3_REGION" envDefault:"us-east-1"`
	S3Bucket         string `env:"UPLOAD_S3_BUCKET"`
	S3AccessKeyID    string `env:"UPLOAD_S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"UPLOAD_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool   `env:"UPLOAD_S3_USE_PATH_STYLE" envDefault:"true"`
	S3UseSSL         bool   `env:"UPLOAD_S3_USE_SSL" envDefault:"true"` // minio only

	// Backend call guards
	BackendTimeout          time.Duration `env:"UPLOAD_BACKEND_TIMEOUT" envDefault:"15s"`
	BreakerFailureThreshold uint32        `env:"UPLOAD_BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerOpenTimeout      time.Duration `env:"UPLOAD_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	// Signed URL lifetimes
	SimpleURLTTL time.Duration `env:"UPLOAD_SIMPLE_URL_TTL" envDefault:"10m"`
	PartURLTTL   time.Duration `env:"UPLOAD_PART_URL_TTL" envDefault:"1h"`

	// Surface ceilings
	AvatarMaxBytes         int64 `env:"UPLOAD_AVATAR_MAX_BYTES" envDefault:"5242880"`
	ChatAttachmentMaxBytes int64 `env:"UPLOAD_CHAT_ATTACHMENT_MAX_BYTES" envDefault:"10485760"`
	CourseAssetMaxBytes    int64 `env:"UPLOAD_COURSE_ASSET_MAX_BYTES" envDefault:"4294967296"`

	// Deletion
	DeleteRoles []string `env:"UPLOAD_DELETE_ROLES" envDefault:"admin,instructor" envSeparator:","`

	// Admission control
	RateLimitBackend        string        `env:"UPLOAD_RATE_LIMIT_BACKEND" envDefault:"memory"` // Options: "memory", "redis" or "off"
	RateLimitRedisURL       string        `env:"UPLOAD_RATE_LIMIT_REDIS_URL"`
	RateLimitWindow         time.Duration `env:"UPLOAD_RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitSimple         int           `env:"UPLOAD_RATE_LIMIT_SIMPLE" envDefault:"10"`
	RateLimitInitiate       int           `env:"UPLOAD_RATE_LIMIT_INITIATE" envDefault:"10"`
	RateLimitSignPart       int           `env:"UPLOAD_RATE_LIMIT_SIGN_PART" envDefault:"600"`
	RateLimitComplete       int           `env:"UPLOAD_RATE_LIMIT_COMPLETE" envDefault:"10"`
	RateLimitAbort          int           `env:"UPLOAD_RATE_LIMIT_ABORT" envDefault:"10"`
	RateLimitDelete         int           `env:"UPLOAD_RATE_LIMIT_DELETE" envDefault:"20"`
	RateLimitMaxFingerprint int           `env:"UPLOAD_RATE_LIMIT_MAX_FINGERPRINTS" envDefault:"10000"`

	// Session janitor
	JanitorEnabled   bool          `env:"UPLOAD_JANITOR_ENABLED" envDefault:"true"`
	JanitorSchedule  string        `env:"UPLOAD_JANITOR_SCHEDULE" envDefault:"*/15 * * * *"`
	SessionMaxAge    time.Duration `env:"UPLOAD_SESSION_MAX_AGE" envDefault:"24h"`
	JanitorBatchSize int           `env:"UPLOAD_JANITOR_BATCH_SIZE" envDefault:"100"`

	// Authentication
	AuthMode        string        `env:"AUTH_MODE" envDefault:"jwks"` // Options: "jwks" or "hmac"
	AuthIssuer      string        `env:"AUTH_ISSUER"`
	AuthAudience    string        `env:"AUTH_AUDIENCE"`
	AuthJWKSURL     string        `env:"AUTH_JWKS_URL"`
	AuthHMACSecret  string        `env:"AUTH_HMAC_SECRET"`
	AuthClockSkew   time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"30s"`
	AuthJWKSRefresh time.Duration `env:"AUTH_JWKS_REFRESH" envDefault:"5m"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretKey = strings.TrimSpace(c.S3SecretKey)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.S3PublicEndpoint = strings.TrimSpace(c.S3PublicEndpoint)
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.RateLimitBackend = strings.ToLower(strings.TrimSpace(c.RateLimitBackend))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))

	roles := make([]string, 0, len(c.DeleteRoles))
	for _, role := range c.DeleteRoles {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	c.DeleteRoles = roles

	switch c.StorageBackend {
	case "", "s3":
		c.StorageBackend = "s3"
	case "minio":
		if c.S3Endpoint == "" {
			return fmt.Errorf("UPLOAD_S3_ENDPOINT is required when UPLOAD_STORAGE_BACKEND is minio")
		}
	default:
		return fmt.Errorf("unsupported UPLOAD_STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.S3Bucket == "" {
		return fmt.Errorf("UPLOAD_S3_BUCKET is required")
	}
	if c.S3AccessKeyID == "" || c.S3SecretKey == "" {
		return fmt.Errorf("UPLOAD_S3_ACCESS_KEY_ID and UPLOAD_S3_SECRET_ACCESS_KEY are required")
	}

	switch c.RateLimitBackend {
	case "", "memory":
		c.RateLimitBackend = "memory"
	case "off":
	case "redis":
		if strings.TrimSpace(c.RateLimitRedisURL) == "" {
			return fmt.Errorf("UPLOAD_RATE_LIMIT_REDIS_URL is required when UPLOAD_RATE_LIMIT_BACKEND is redis")
		}
	default:
		return fmt.Errorf("unsupported UPLOAD_RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = time.Minute
	}

	switch c.AuthMode {
	case "", "jwks":
		c.AuthMode = "jwks"
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_MODE is jwks")
		}
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_MODE is jwks")
		}
	case "hmac":
		if len(c.AuthHMACSecret) < 32 {
			return fmt.Errorf("AUTH_HMAC_SECRET must be at least 32 bytes when AUTH_MODE is hmac")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthMode)
	}

	if c.SimpleURLTTL <= 0 || c.PartURLTTL <= 0 {
		return fmt.Errorf("signed URL lifetimes must be positive")
	}
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = 15 * time.Second
	}
	if c.JanitorBatchSize <= 0 {
		c.JanitorBatchSize = 100
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsMinioStorage returns true if the MinIO backend is configured.
func (c *Config) IsMinioStorage() bool {
	return c.StorageBackend == "minio"
}

// HasDatabase reports whether a ledger database is configured.
func (c *Config) HasDatabase() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}
