package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Keycloak    KeycloakConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	Notify      NotifyConfig
	Outbox      OutboxConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// KeycloakConfig locates the identity provider's published signing keys.
// CertsURL wins when set; otherwise it is derived from ServerURL and Realm.
type KeycloakConfig struct {
	ServerURL string
	Realm     string
	ClientID  string
	CertsURL  string
	Timeout   time.Duration
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

type CacheConfig struct {
	TTL time.Duration
}

type NotifyConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	From         string
	To           string
	Subject      string
	Body         string
}

type OutboxConfig struct {
	Path         string
	SyncInterval time.Duration
	BatchSize    int
	MaxRetry     int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

const defaultMailBody = "Hello,\n\n" +
	"This is to inform you that a new task has been successfully created in the system.\n" +
	"Kindly review the task details, verify the assigned responsibilities, and proceed with the required actions.\n" +
	"Please ensure timely completion as per the defined priority and deadlines.\n\n" +
	"Regards,\nTask Management System"

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "tasknest"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "tasknest_db"),
			User:            getString("DB_USER", "tasknest_user"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Keycloak: KeycloakConfig{
			ServerURL: getString("KEYCLOAK_SERVER_URL", "http://localhost:8081/"),
			Realm:     getString("KEYCLOAK_REALM", "tasknest"),
			ClientID:  getString("KEYCLOAK_CLIENT_ID", "tasknest-backend"),
			CertsURL:  os.Getenv("KEYCLOAK_CERTS_URL"),
			Timeout:   getDuration("KEYCLOAK_TIMEOUT", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			Limit:  getInt("RATE_LIMIT", 100),
			Window: getDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		},
		Cache: CacheConfig{
			TTL: getDuration("CACHE_TTL", 60*time.Second),
		},
		Notify: NotifyConfig{
			Enabled:      getBool("NOTIFY_ENABLED", true),
			SMTPHost:     getString("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getString("SMTP_PORT", "465"),
			SMTPUser:     os.Getenv("SMTP_USER"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			From:         getString("MAIL_FROM", os.Getenv("SMTP_USER")),
			To:           os.Getenv("MAIL_TO"),
			Subject:      getString("MAIL_SUBJECT", "New Task Created | Review and Take Action"),
			Body:         getString("MAIL_BODY", defaultMailBody),
		},
		Outbox: OutboxConfig{
			Path:         getString("OUTBOX_PATH", "./data/outbox.db"),
			SyncInterval: getDuration("OUTBOX_SYNC_INTERVAL", 15*time.Second),
			BatchSize:    getInt("OUTBOX_BATCH_SIZE", 50),
			MaxRetry:     getInt("OUTBOX_MAX_RETRY", 3),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}
	if cfg.Keycloak.CertsURL == "" {
		cfg.Keycloak.CertsURL = fmt.Sprintf(
			"%srealms/%s/protocol/openid-connect/certs",
			cfg.Keycloak.ServerURL,
			cfg.Keycloak.Realm,
		)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
