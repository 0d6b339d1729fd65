package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ukydev/servicelog/internal/autosave"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Auth     AuthConfig
	MQTT     MQTTConfig
	Autosave autosave.Timings
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	RateLimit       int
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig holds the single operator credentials. Auth is off when
// PasswordHash is empty.
type AuthConfig struct {
	JWTSecret    string
	JWTExpiry    time.Duration
	Username     string
	PasswordHash string
}

// Enabled reports whether the HTTP API requires a token.
func (a AuthConfig) Enabled() bool {
	return a.PasswordHash != ""
}

// MQTTConfig holds the event publisher settings. Publishing is off when
// BrokerURL is empty.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		_ = godotenv.Load()
	}

	defaults := autosave.DefaultTimings()
	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getenvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	rateLimit, err := getenvInt("RATE_LIMIT_PER_MINUTE", 0)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimit:       rateLimit,
		},
		Log: LogConfig{
			Level:  getenvWithDefault("LOG_LEVEL", "info"),
			Format: getenvWithDefault("LOG_FORMAT", "text"),
		},
		Auth: AuthConfig{
			JWTSecret:    getenvWithDefault("JWT_SECRET", "default-secret-key-change-in-production"),
			JWTExpiry:    duration("JWT_EXPIRY", 24*time.Hour),
			Username:     getenvWithDefault("OPERATOR_USERNAME", "operator"),
			PasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		},
		MQTT: MQTTConfig{
			BrokerURL:   os.Getenv("MQTT_BROKER_URL"),
			ClientID:    getenvWithDefault("MQTT_CLIENT_ID", "servicelog"),
			TopicPrefix: getenvWithDefault("MQTT_TOPIC_PREFIX", "servicelog"),
		},
		Autosave: autosave.Timings{
			MountSettle:   duration("AUTOSAVE_MOUNT_SETTLE", defaults.MountSettle),
			FormDebounce:  duration("AUTOSAVE_FORM_DEBOUNCE", defaults.FormDebounce),
			DraftDebounce: duration("AUTOSAVE_DRAFT_DEBOUNCE", defaults.DraftDebounce),
			SaveSettle:    duration("AUTOSAVE_SAVE_SETTLE", defaults.SaveSettle),
			SavedHold:     duration("AUTOSAVE_SAVED_HOLD", defaults.SavedHold),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}

	if c.Auth.Enabled() {
		if c.Auth.Username == "" {
			return errors.New("OPERATOR_USERNAME must be provided when OPERATOR_PASSWORD_HASH is set")
		}
		if c.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET must not be empty")
		}
		if c.Auth.JWTExpiry <= 0 {
			return errors.New("JWT_EXPIRY must be positive")
		}
	}

	if c.MQTT.BrokerURL != "" && c.MQTT.ClientID == "" {
		return errors.New("MQTT_CLIENT_ID must be provided when MQTT_BROKER_URL is set")
	}

	t := c.Autosave
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"AUTOSAVE_MOUNT_SETTLE", t.MountSettle},
		{"AUTOSAVE_FORM_DEBOUNCE", t.FormDebounce},
		{"AUTOSAVE_DRAFT_DEBOUNCE", t.DraftDebounce},
		{"AUTOSAVE_SAVE_SETTLE", t.SaveSettle},
		{"AUTOSAVE_SAVED_HOLD", t.SavedHold},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive", d.key)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}
