package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env     string
	Server  ServerConfig
	Redis   RedisConfig
	Session SessionConfig
	Form    FormConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type RedisConfig struct {
	URL               string
	QueueName         string
	WorkerConcurrency int
	RateLimitEnabled  bool
}

type SessionConfig struct {
	Secret   string
	Domain   string
	MaxAge   int
	Secure   bool
	HttpOnly bool
}

type FormConfig struct {
	// QueueBackend is "memory" or "redis".
	QueueBackend    string
	SubmissionDelay time.Duration
	SubmissionTTL   time.Duration
	WorkerPoll      time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads .env (if present) and the environment. Warnings are written to
// logger since the configured logger does not exist yet.
func Load(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not loaded, using environment and defaults", zap.Error(err))
	}

	workerConcurrency := getEnvInt("WORKER_CONCURRENCY", 2)
	if workerConcurrency < 1 {
		workerConcurrency = 1
	} else if workerConcurrency > 8 {
		workerConcurrency = 8
	}

	cfg := &Config{
		Env: getEnv("ENV", "dev"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", ""),
			QueueName:         getEnv("REDIS_QUEUE_NAME", "checkout_form_jobs"),
			WorkerConcurrency: workerConcurrency,
			RateLimitEnabled:  getEnvBool("RATE_LIMIT_ENABLED", false),
		},
		Session: SessionConfig{
			Secret:   getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
			Domain:   getEnv("SESSION_DOMAIN", ""),
			MaxAge:   getEnvInt("SESSION_MAX_AGE", 3600),
			Secure:   getEnvBool("SESSION_SECURE", false),
			HttpOnly: getEnvBool("SESSION_HTTP_ONLY", true),
		},
		Form: FormConfig{
			QueueBackend:    strings.ToLower(getEnv("QUEUE_BACKEND", "memory")),
			SubmissionDelay: getEnvDuration("SUBMISSION_DELAY", 2*time.Second),
			SubmissionTTL:   getEnvDuration("SUBMISSION_TTL", time.Hour),
			WorkerPoll:      getEnvDuration("WORKER_POLL_INTERVAL", 250*time.Millisecond),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Form.QueueBackend != "memory" && c.Form.QueueBackend != "redis" {
		return fmt.Errorf("QUEUE_BACKEND must be memory or redis, got %q", c.Form.QueueBackend)
	}
	if (c.Form.QueueBackend == "redis" || c.Redis.RateLimitEnabled) && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when Redis is used")
	}
	if c.IsProduction() && c.Session.Secret == "dev-session-secret-change-me" {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	if c.Form.SubmissionDelay < 0 {
		return fmt.Errorf("SUBMISSION_DELAY must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
