package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Roles     RolesConfig
	Purge     PurgeConfig
	Storage   StorageConfig
	Geocoding GeocodingConfig
	Dashboard DashboardConfig
	Notify    NotifyConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig describes how access tokens issued by the identity backend are validated.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RolesConfig bounds every privilege and profile lookup made while resolving a session.
type RolesConfig struct {
	LookupTimeout time.Duration
	SessionMaxAge time.Duration
}

// PurgeConfig tunes the administrative bulk purge.
type PurgeConfig struct {
	PageSize    int
	BatchSize   int
	SampleLimit int
	LockTTL     time.Duration
}

// StorageConfig locates the public photo bucket.
type StorageConfig struct {
	Dir           string
	Bucket        string
	PublicBaseURL string
	MaxFileSize   int64
	AllowedMIMEs  []string
}

// GeocodingConfig configures the reverse geocoding proxy.
type GeocodingConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// NotifyConfig configures administrator e-mail notifications.
type NotifyConfig struct {
	AdminEmails  []string
	ResendAPIKey string
	ResendURL    string
	From         string
	AppBaseURL   string
	Workers      int
	Retries      int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Roles = RolesConfig{
		LookupTimeout: parseDuration(v.GetString("ROLE_LOOKUP_TIMEOUT"), 1500*time.Millisecond),
		SessionMaxAge: parseDuration(v.GetString("SESSION_MAX_AGE"), 5*time.Minute),
	}

	cfg.Purge = PurgeConfig{
		PageSize:    positiveOr(v.GetInt("PURGE_PAGE_SIZE"), 1000),
		BatchSize:   positiveOr(v.GetInt("PURGE_BATCH_SIZE"), 1000),
		SampleLimit: positiveOr(v.GetInt("PURGE_SAMPLE_LIMIT"), 50),
		LockTTL:     parseDuration(v.GetString("PURGE_LOCK_TTL"), 15*time.Minute),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Dir:           v.GetString("STORAGE_DIR"),
		Bucket:        v.GetString("STORAGE_BUCKET"),
		PublicBaseURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
		MaxFileSize:   maxUpload,
		AllowedMIMEs:  splitAndTrim(v.GetString("UPLOAD_ALLOWED_MIME_TYPES")),
	}

	cfg.Geocoding = GeocodingConfig{
		BaseURL:   strings.TrimRight(v.GetString("NOMINATIM_BASE_URL"), "/"),
		UserAgent: v.GetString("NOMINATIM_USER_AGENT"),
		Timeout:   parseDuration(v.GetString("NOMINATIM_TIMEOUT"), 10*time.Second),
		CacheTTL:  parseDuration(v.GetString("GEOCODE_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Notify = NotifyConfig{
		AdminEmails:  splitAndTrim(v.GetString("ADMIN_EMAILS")),
		ResendAPIKey: v.GetString("RESEND_API_KEY"),
		ResendURL:    v.GetString("RESEND_API_URL"),
		From:         v.GetString("EMAIL_FROM"),
		AppBaseURL:   strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		Workers:      positiveOr(v.GetInt("NOTIFY_WORKERS"), 1),
		Retries:      positiveOr(v.GetInt("NOTIFY_RETRIES"), 3),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "portal_cidadao")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "authenticated")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ROLE_LOOKUP_TIMEOUT", "1500ms")
	v.SetDefault("SESSION_MAX_AGE", "5m")

	v.SetDefault("PURGE_PAGE_SIZE", 1000)
	v.SetDefault("PURGE_BATCH_SIZE", 1000)
	v.SetDefault("PURGE_SAMPLE_LIMIT", 50)
	v.SetDefault("PURGE_LOCK_TTL", "15m")

	v.SetDefault("STORAGE_DIR", "./storage")
	v.SetDefault("STORAGE_BUCKET", "fotos")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/webp,image/gif")

	v.SetDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("NOMINATIM_USER_AGENT", "Portal-Cidadao/1.0 (+localhost; dev)")
	v.SetDefault("NOMINATIM_TIMEOUT", "10s")
	v.SetDefault("GEOCODE_CACHE_TTL", "24h")

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_API_URL", "https://api.resend.com/emails")
	v.SetDefault("EMAIL_FROM", "Portal Cidadão <no-reply@localhost>")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
