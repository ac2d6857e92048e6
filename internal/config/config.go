package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Progression scopes control which tasks participate in one student's
// lock ordering.
const (
	// ProgressionScopeGlobal orders every task assigned to the student in a
	// single sequence regardless of course.
	ProgressionScopeGlobal = "global"
	// ProgressionScopePerCourse evaluates each course's tasks independently.
	ProgressionScopePerCourse = "per_course"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	StatsCacheTTL          time.Duration
	ProgressionScope       string
	SubmitRateLimit        int
	SubmitRateWindow       time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MENTORLOOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "MentorLoop API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "mentorloop/submissions")
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("progression.scope", ProgressionScopeGlobal)
	v.SetDefault("submit.rate_limit", 30)
	v.SetDefault("submit.rate_window", "1m")

	ttl, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("submit.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		StatsCacheTTL:          ttl,
		ProgressionScope:       strings.ToLower(v.GetString("progression.scope")),
		SubmitRateLimit:        v.GetInt("submit.rate_limit"),
		SubmitRateWindow:       rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.ProgressionScope {
	case ProgressionScopeGlobal, ProgressionScopePerCourse:
	default:
		return Config{}, fmt.Errorf("unknown progression scope %q", cfg.ProgressionScope)
	}

	return cfg, nil
}
