package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/planit/backend/domain"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Points      PointsConfig
	Assistant   AssistantConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
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
	ConnectAttempts int
}

// DSN returns URL, or assembles one from the discrete fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	URL             string
	Password        string
	DB              int
	ConnectAttempts int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	SessionTTL time.Duration
}

type BufferConfig struct {
	Path           string
	MaxSize        int
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
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

// PointsConfig holds award amounts. MissedDeadline is a positive number
// subtracted from the balance.
type PointsConfig struct {
	SignupBonus    int
	DailyCheckin   int
	TaskOnTime     int
	MissedDeadline int
	SweepInterval  time.Duration
}

type AssistantConfig struct {
	DefaultPriority        string
	CommandDefaultPriority string
	PendingTTL             time.Duration
	ListLimit              int
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "planit"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "planit"),
			User:            getString("DB_USER", "planit"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
			ConnectAttempts: getInt("DB_CONNECT_ATTEMPTS", 5),
		},
		Redis: RedisConfig{
			URL:             getString("REDIS_URL", "redis://localhost:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              getInt("REDIS_DB", 0),
			ConnectAttempts: getInt("REDIS_CONNECT_ATTEMPTS", 5),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "planit"),
			TokenTTL:   getDuration("JWT_TOKEN_TTL", 24*time.Hour),
			SessionTTL: getDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Buffer: BufferConfig{
			Path:           getString("BOLTDB_PATH", "./data/buffer.db"),
			MaxSize:        getInt("BUFFER_MAX_SIZE", 100_000),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
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
		Points: PointsConfig{
			SignupBonus:    getInt("POINTS_SIGNUP_BONUS", 100),
			DailyCheckin:   getInt("POINTS_DAILY_CHECKIN", 10),
			TaskOnTime:     getInt("POINTS_TASK_ON_TIME", 20),
			MissedDeadline: getInt("POINTS_MISSED_DEADLINE", 10),
			SweepInterval:  getDuration("DEADLINE_SWEEP_INTERVAL", time.Hour),
		},
		Assistant: AssistantConfig{
			DefaultPriority:        strings.ToLower(getString("ASSISTANT_DEFAULT_PRIORITY", domain.PriorityLow)),
			CommandDefaultPriority: strings.ToLower(getString("COMMAND_DEFAULT_PRIORITY", domain.PriorityMedium)),
			PendingTTL:             getDuration("ASSISTANT_PENDING_TTL", 10*time.Minute),
			ListLimit:              getInt("ASSISTANT_LIST_LIMIT", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
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

func (c *Config) validate() error {
	if c.JWT.Secret == "" && c.IsProduction() {
		return fmt.Errorf("config: JWT_SECRET is required in %s", c.Environment)
	}
	if !domain.ValidPriority(c.Assistant.DefaultPriority) {
		return fmt.Errorf("config: ASSISTANT_DEFAULT_PRIORITY %q is not a priority", c.Assistant.DefaultPriority)
	}
	if !domain.ValidPriority(c.Assistant.CommandDefaultPriority) {
		return fmt.Errorf("config: COMMAND_DEFAULT_PRIORITY %q is not a priority", c.Assistant.CommandDefaultPriority)
	}
	if c.Points.MissedDeadline < 0 {
		c.Points.MissedDeadline = -c.Points.MissedDeadline
	}
	if c.Assistant.ListLimit <= 0 {
		c.Assistant.ListLimit = 10
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
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
