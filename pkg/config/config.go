package config

import (
	"errors"
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
	BaseURL   string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Forums      ForumConfig
	Icons       IconConfig
	Nominations NominationConfig
	Webhook     WebhookConfig
	Exports     ExportConfig
	Profiles    ProfileConfig
	Packs       PackConfig
}

type DatabaseConfig struct {
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ForumConfig maps beatmapset statuses to the forum a discussion topic lives in.
type ForumConfig struct {
	RankedID    int
	PendingID   int
	WIPID       int
	GraveyardID int
}

// IconConfig holds the topic icon identifiers applied on status changes.
type IconConfig struct {
	HeartID       int
	BrokenHeartID int
	FlameID       int
}

// NominationConfig governs the promotion threshold and counting rules.
type NominationConfig struct {
	RequiredDefault int
	DistinctActors  bool
}

// WebhookConfig configures the outbound status change webhook.
type WebhookConfig struct {
	Enabled    bool
	URL        string
	Timeout    time.Duration
	Workers    int
	BufferSize int
}

// ExportConfig controls async ledger exports and their signed downloads.
type ExportConfig struct {
	Enabled         bool
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	Workers         int
	MaxRetries      int
}

// ProfileConfig tunes profile page caching.
type ProfileConfig struct {
	CacheTTL time.Duration
}

// PackConfig tunes beatmap pack listing caching.
type PackConfig struct {
	CacheTTL time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.BaseURL = v.GetString("BASE_URL")

	cfg.Database = DatabaseConfig{
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Forums = ForumConfig{
		RankedID:    v.GetInt("FORUM_RANKED_ID"),
		PendingID:   v.GetInt("FORUM_PENDING_ID"),
		WIPID:       v.GetInt("FORUM_WIP_ID"),
		GraveyardID: v.GetInt("FORUM_GRAVEYARD_ID"),
	}

	cfg.Icons = IconConfig{
		HeartID:       v.GetInt("ICON_HEART_ID"),
		BrokenHeartID: v.GetInt("ICON_BROKEN_HEART_ID"),
		FlameID:       v.GetInt("ICON_FLAME_ID"),
	}

	cfg.Nominations = NominationConfig{
		RequiredDefault: v.GetInt("NOMINATIONS_REQUIRED"),
		DistinctActors:  v.GetBool("NOMINATIONS_DISTINCT_ACTORS"),
	}

	cfg.Webhook = WebhookConfig{
		Enabled:    v.GetBool("WEBHOOK_ENABLED"),
		URL:        v.GetString("WEBHOOK_URL"),
		Timeout:    parseDuration(v.GetString("WEBHOOK_TIMEOUT"), 10*time.Second),
		Workers:    v.GetInt("WEBHOOK_WORKERS"),
		BufferSize: v.GetInt("WEBHOOK_BUFFER_SIZE"),
	}

	cfg.Exports = ExportConfig{
		Enabled:         v.GetBool("ENABLE_EXPORTS"),
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		Workers:         v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		MaxRetries:      v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.Profiles = ProfileConfig{
		CacheTTL: parseDuration(v.GetString("PROFILE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Packs = PackConfig{
		CacheTTL: parseDuration(v.GetString("PACK_CACHE_TTL"), 30*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "community")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "community-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FORUM_RANKED_ID", 8)
	v.SetDefault("FORUM_PENDING_ID", 9)
	v.SetDefault("FORUM_WIP_ID", 10)
	v.SetDefault("FORUM_GRAVEYARD_ID", 12)

	v.SetDefault("ICON_HEART_ID", 1)
	v.SetDefault("ICON_BROKEN_HEART_ID", 2)
	v.SetDefault("ICON_FLAME_ID", 5)

	v.SetDefault("NOMINATIONS_REQUIRED", 2)
	v.SetDefault("NOMINATIONS_DISTINCT_ACTORS", false)

	v.SetDefault("WEBHOOK_ENABLED", false)
	v.SetDefault("WEBHOOK_URL", "")
	v.SetDefault("WEBHOOK_TIMEOUT", "10s")
	v.SetDefault("WEBHOOK_WORKERS", 1)
	v.SetDefault("WEBHOOK_BUFFER_SIZE", 16)

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("PROFILE_CACHE_TTL", "5m")
	v.SetDefault("PACK_CACHE_TTL", "30m")
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
