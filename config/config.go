// Package config reads runtime settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"paymordomo/objstore"
)

type Config struct {
	Port           string
	DatabaseURL    string
	DBRetries      int
	AllowedOrigins string
	RateLimit      int

	JWTSecret string
	JWTExpiry time.Duration

	RedisURL    string
	KVNamespace string

	R2        objstore.R2Config
	UploadDir string

	ResyncInterval time.Duration

	LogLevel string
	LogDev   bool
}

// InMemory reports whether rows live in process memory because no database
// is configured. Nothing survives a restart in that mode.
func (c Config) InMemory() bool { return c.DatabaseURL == "" }

// UseR2 reports whether receipts go to Cloudflare R2 instead of local disk.
func (c Config) UseR2() bool {
	return c.R2.AccountID != "" && c.R2.Bucket != ""
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "5200")
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("JWT_EXPIRY", "24h")
	v.SetDefault("KV_NAMESPACE", "paymordomo")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("BADGE_RESYNC_INTERVAL", "1h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
}

// Load reads the configuration. It fails when a required value is missing.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	cfg := &Config{
		Port:           v.GetString("PORT"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBRetries:      v.GetInt("DB_CONNECT_RETRIES"),
		AllowedOrigins: normalizeOrigins(v.GetString("ALLOWED_ORIGINS")),
		RateLimit:      v.GetInt("RATE_LIMIT"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpiry:      v.GetDuration("JWT_EXPIRY"),
		RedisURL:       v.GetString("REDIS_URL"),
		KVNamespace:    v.GetString("KV_NAMESPACE"),
		R2: objstore.R2Config{
			AccountID:       v.GetString("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			AccessKeySecret: v.GetString("R2_ACCESS_KEY_SECRET"),
			Bucket:          v.GetString("R2_BUCKET_NAME"),
			CDNBaseURL:      v.GetString("CDN_BASE_URL"),
		},
		UploadDir:      v.GetString("UPLOAD_DIR"),
		ResyncInterval: v.GetDuration("BADGE_RESYNC_INTERVAL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogDev:         v.GetBool("LOG_DEV"),
	}

	if cfg.JWTSecret == "" {
		return nil, dotenv, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return cfg, dotenv, nil
}

func normalizeOrigins(s string) string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
