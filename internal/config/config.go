package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Document store backends
const (
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	S3       S3Config
	Auth     AuthConfig
	Sync     SyncConfig
	OTEL     OTELConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	MaxUploadSizeMB int64
	CORSOrigins     string
	IdempotencyTTL  time.Duration
	PackageCacheTTL time.Duration
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Backend string // "mongo" or "firestore"
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FirebaseConfig holds Firebase Admin SDK configuration
type FirebaseConfig struct {
	ProjectID   string
	PrivateKey  string // Base64 encoded
	ClientEmail string
}

// Enabled reports whether Firebase credentials are configured
func (f FirebaseConfig) Enabled() bool {
	return f.ProjectID != "" && f.PrivateKey != "" && f.ClientEmail != ""
}

// S3Config holds the blob store (SeaweedFS / MinIO / AWS S3) configuration
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	PublicURL string
	AccessKey string
	SecretKey string
}

// AuthConfig holds admin token verification settings
type AuthConfig struct {
	AdminJWTSecret string   // HMAC secret for script/cron tokens
	AdminEmails    []string // empty = any verified Firebase user
}

// SyncConfig tunes the participant count synchronizer
type SyncConfig struct {
	Concurrency     int
	EnrollLockTTL   time.Duration
	EnrollLockWait  time.Duration
	ConflictRetries int
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	URLPath        string
	InstanceID     string
	Token          string
	SampleRatio    float64
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			MaxUploadSizeMB: getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 50),
			CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
			IdempotencyTTL:  getEnvAsDuration("IDEMPOTENCY_TTL", 10*time.Minute),
			PackageCacheTTL: getEnvAsDuration("PACKAGE_CACHE_TTL", 2*time.Minute),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("DOCUMENT_STORE", StoreMongo)),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "tripdesk"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       int(getEnvAsInt64("REDIS_DB", 0)),
		},
		Firebase: FirebaseConfig{
			ProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
			PrivateKey:  getEnv("FIREBASE_PRIVATE_KEY", ""),
			ClientEmail: getEnv("FIREBASE_CLIENT_EMAIL", ""),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:8333"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "tripdesk-media"),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", "any"),
			SecretKey: getEnv("S3_SECRET_KEY", "any"),
		},
		Auth: AuthConfig{
			AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
			AdminEmails:    getEnvAsList("ADMIN_EMAILS"),
		},
		Sync: SyncConfig{
			Concurrency:     int(getEnvAsInt64("SYNC_CONCURRENCY", 4)),
			EnrollLockTTL:   getEnvAsDuration("ENROLL_LOCK_TTL", 10*time.Second),
			EnrollLockWait:  getEnvAsDuration("ENROLL_LOCK_WAIT", 2*time.Second),
			ConflictRetries: int(getEnvAsInt64("CONFLICT_RETRIES", 3)),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "tripdesk-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			URLPath:        getEnv("OTEL_URL_PATH", "/otlp"),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
			SampleRatio:    getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}

	if cfg.S3.PublicURL == "" {
		cfg.S3.PublicURL = cfg.S3.Endpoint
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
	case StoreFirestore:
		if !c.Firebase.Enabled() {
			return fmt.Errorf("FIREBASE_PROJECT_ID, FIREBASE_PRIVATE_KEY and FIREBASE_CLIENT_EMAIL are required for the firestore store")
		}
	default:
		return fmt.Errorf("DOCUMENT_STORE must be %q or %q, got %q", StoreMongo, StoreFirestore, c.Store.Backend)
	}
	if !c.Firebase.Enabled() && c.Auth.AdminJWTSecret == "" {
		return fmt.Errorf("either Firebase credentials or ADMIN_JWT_SECRET is required to protect admin routes")
	}
	if c.Sync.Concurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be at least 1")
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED=true")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
