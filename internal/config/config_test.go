package config

import (
	"os"
	"path/filepath"
	"testing"

	"rentease/internal/models"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "rentease"
storage:
  backend: "sqlite"
  path: "test.db"
auth:
  password_strategy: "bcrypt"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// Mock .env file
	if err := os.WriteFile(".env", []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	defer os.Remove(".env")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected backend sqlite, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyPrefix != models.DefaultKeyPrefix {
		t.Errorf("expected default key prefix %s, got %s", models.DefaultKeyPrefix, cfg.Storage.KeyPrefix)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("RENTEASE_REDIS_ADDR", "localhost:6379")

	yamlContent := `
storage:
  backend: "redis"
  redis:
    address: "${RENTEASE_REDIS_ADDR}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.Redis.Address != "localhost:6379" {
		t.Errorf("expected expanded redis address, got %s", cfg.Storage.Redis.Address)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid memory config",
			cfg: Config{
				Storage: StorageConfig{Backend: "memory"},
				Auth:    AuthConfig{PasswordStrategy: "bcrypt"},
			},
			wantErr: false,
		},
		{
			name: "sqlite without path",
			cfg: Config{
				Storage: StorageConfig{Backend: "sqlite"},
				Auth:    AuthConfig{PasswordStrategy: "bcrypt"},
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			cfg: Config{
				Storage: StorageConfig{Backend: "etcd"},
				Auth:    AuthConfig{PasswordStrategy: "bcrypt"},
			},
			wantErr: true,
		},
		{
			name: "unknown password strategy",
			cfg: Config{
				Storage: StorageConfig{Backend: "memory"},
				Auth:    AuthConfig{PasswordStrategy: "md5"},
			},
			wantErr: true,
		},
		{
			name: "api enabled without jwt secret",
			cfg: Config{
				Storage: StorageConfig{Backend: "memory"},
				Auth:    AuthConfig{PasswordStrategy: "none"},
				API:     APIConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "telegram enabled without token",
			cfg: Config{
				Storage:  StorageConfig{Backend: "memory"},
				Auth:     AuthConfig{PasswordStrategy: "none"},
				Telegram: TelegramConfig{Enabled: true},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Storage.Backend != "file" {
		t.Errorf("expected default backend file, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyPrefix != models.DefaultKeyPrefix {
		t.Errorf("expected default key prefix %s, got %s", models.DefaultKeyPrefix, cfg.Storage.KeyPrefix)
	}
	if cfg.Auth.TokenTTLHours != models.DefaultTokenTTLHours {
		t.Errorf("expected default token ttl %d, got %d", models.DefaultTokenTTLHours, cfg.Auth.TokenTTLHours)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.RateLimit.Burst != models.RateLimitBurst {
		t.Errorf("expected default rate limit burst %d, got %d", models.RateLimitBurst, cfg.API.RateLimit.Burst)
	}
	if cfg.Backup.RetentionDays != models.DefaultBackupRetentionDays {
		t.Errorf("expected default retention %d, got %d", models.DefaultBackupRetentionDays, cfg.Backup.RetentionDays)
	}
}
