package config

import (
	"errors"
	"fmt"
	"os"

	"rentease/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	API        APIConfig        `yaml:"api"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type StorageConfig struct {
	// Backend selects where collections live: memory, file, sqlite,
	// redis or postgres.
	Backend   string         `yaml:"backend"`
	KeyPrefix string         `yaml:"key_prefix"`
	Path      string         `yaml:"path"` // file directory or sqlite db path
	Redis     RedisConfig    `yaml:"redis"`
	Postgres  PostgresConfig `yaml:"postgres"`
	// FallbackToMemory wraps the backend in a failover that keeps serving
	// from memory when the primary goes down.
	FallbackToMemory bool `yaml:"fallback_to_memory"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	// PasswordStrategy is bcrypt or none. "none" replicates the original
	// prototype's no-verification behavior and is only meant for imports.
	PasswordStrategy string `yaml:"password_strategy"`
	BcryptCost       int    `yaml:"bcrypt_cost"`
	JWTSecret        string `yaml:"jwt_secret"`
	TokenTTLHours    int    `yaml:"token_ttl_hours"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type TelegramConfig struct {
	Enabled      bool    `yaml:"enabled"`
	BotToken     string  `yaml:"bot_token"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
}

type GoogleConfig struct {
	CredentialsFile      string `yaml:"credentials_file"`
	RentalsSpreadsheetID string `yaml:"rentals_spreadsheet_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; env vars referenced from the YAML may come from
	// the environment directly.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case "redis":
		if c.Storage.Redis.Address == "" {
			return errors.New("storage.redis.address is required for the redis backend")
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Auth.PasswordStrategy {
	case "bcrypt", "none":
	default:
		return fmt.Errorf("unknown password strategy %q", c.Auth.PasswordStrategy)
	}

	if c.API.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when the API is enabled")
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE") {
		return errors.New("telegram.bot_token is required when telegram notifications are enabled")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = models.DefaultKeyPrefix
	}
	if c.Auth.PasswordStrategy == "" {
		c.Auth.PasswordStrategy = "bcrypt"
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = models.DefaultTokenTTLHours
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.RateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = models.DefaultBackupRetentionDays
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
