package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Env         string
	Port        string
	LogMode     string
	CORSOrigins []string

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBTimeZone  string
	DBLogSQL    bool

	// TMDB
	TMDBAPIKey       string
	TMDBBaseURL      string
	TMDBImageBaseURL string
	TMDBLanguage     string
	TMDBRegion       string

	// Redis (catalog cache + login rate limit). Empty URL disables both.
	RedisURL        string
	CatalogCacheTTL time.Duration
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Upload storage: "supabase" or "s3"
	StorageDriver string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3Bucket           string
	S3UseSSL           bool

	// Sessions
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration
	BcryptCost             int

	// Tracing
	ServiceName     string
	Version         string
	OtelEnabled     bool
	OtelEndpoint    string
	OtelHeaders     string
	OtelInsecure    bool
	OtelSampleRatio float64
}

func Load() (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		LogMode:     getEnv("LOG_MODE", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "mente_abundante"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		DBTimeZone:  getEnv("DB_TIMEZONE", "America/Mexico_City"),
		DBLogSQL:    getBool("DB_LOG_SQL", false),

		TMDBAPIKey:       getEnv("TMDB_API_KEY", ""),
		TMDBBaseURL:      getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL: getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
		TMDBLanguage:     getEnv("TMDB_LANGUAGE", "es-MX"),
		TMDBRegion:       strings.ToUpper(getEnv("TMDB_REGION", "MX")),

		RedisURL:        getEnv("REDIS_URL", ""),
		CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", time.Hour),
		LoginRateLimit:  getInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getDuration("LOGIN_RATE_WINDOW", time.Minute),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "supabase")),

		SupabaseURL:    strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:    getEnv("SUPABASE_KEY", ""),
		SupabaseBucket: getEnv("SUPABASE_BUCKET", "uploads"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3Bucket:           getEnv("S3_BUCKET", "uploads"),
		S3UseSSL:           getBool("S3_USE_SSL", true),

		SessionTTL:             getDuration("SESSION_TTL", 7*24*time.Hour),
		SessionCleanupInterval: getDuration("SESSION_CLEANUP_INTERVAL", 6*time.Hour),
		BcryptCost:             getInt("BCRYPT_COST", 12),

		ServiceName: getEnv("OTEL_SERVICE_NAME", "mente-abundante"),
		Version:     getEnv("APP_VERSION", "dev"),

		OtelEnabled:     getBool("OTEL_ENABLED", false),
		OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelHeaders:     getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OtelInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelSampleRatio: getFloat("OTEL_SAMPLER_RATIO", 0.1),
	}
	if cfg.LogMode == "" {
		cfg.LogMode = cfg.Env
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
