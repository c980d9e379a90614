// config - источник загрузки конфигурации для шлюза консоли.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// После загрузки конфигурация проверяется validator/v10.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	HTTP      HTTPConfig      `yaml:"http"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Backend   BackendConfig   `yaml:"backend"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Storage   StorageConfig   `yaml:"storage"`
	Session   SessionConfig   `yaml:"session"`
	Archive   ArchiveConfig   `yaml:"archive"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Views     ViewsConfig     `yaml:"views"`
}

// TimeoutConfig — таймауты исходящих вызовов.
type TimeoutConfig struct {
	// Service — таймаут обычного вызова бэкенда.
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"15s" validate:"gte=0"`
	// Refresh — таймаут обмена refresh-токена; истечение = неудачный обмен.
	Refresh time.Duration `yaml:"refresh" env:"REFRESH_TIMEOUT" env-default:"10s" validate:"gt=0"`
}

// HTTPConfig — локальный REST-сервер шлюза для оболочки.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50090" validate:"required,numeric"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// MetricsConfig — отдельный HTTP для Prometheus.
type MetricsConfig struct {
	Host string `yaml:"host"   env:"METRICS_HOST"   env-default:"127.0.0.1"`
	Port string `yaml:"port"   env:"METRICS_PORT"   env-default:"50085" validate:"required,numeric"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// BackendConfig — внешний бэкенд сканирования.
type BackendConfig struct {
	BaseURL   string `yaml:"base_url"   env:"BACKEND_BASE_URL"   env-default:"http://127.0.0.1:8080" validate:"required,url"`
	UserAgent string `yaml:"user_agent" env:"BACKEND_USER_AGENT" env-default:"scan-console"`
}

// StorageConfig — долговременное хранилище учётных данных и состояния экранов.
type StorageConfig struct {
	Driver   string `yaml:"driver"    env:"STORAGE_DRIVER"    env-default:"file" validate:"oneof=file redis memory"`
	Path     string `yaml:"path"      env:"STORAGE_PATH"      env-default:"./data/console.json" validate:"required_if=Driver file"`
	RedisURL string `yaml:"redis_url" env:"STORAGE_REDIS_URL" validate:"required_if=Driver redis"`
	Prefix   string `yaml:"prefix"    env:"STORAGE_PREFIX"    env-default:"console:"`
}

// SessionConfig — параметры сессии.
type SessionConfig struct {
	// ExpiredMessage — уведомление, которое оболочка покажет после принудительного выхода.
	ExpiredMessage string `yaml:"expired_message" env:"SESSION_EXPIRED_MESSAGE" env-default:"Your session has expired. Please sign in again."`
}

// ArchiveConfig — S3-совместимый архив отчётов (MinIO).
type ArchiveConfig struct {
	Enabled    bool          `yaml:"enabled"     env:"ARCHIVE_ENABLED"     env-default:"false"`
	Endpoint   string        `yaml:"endpoint"    env:"ARCHIVE_ENDPOINT"    validate:"required_if=Enabled true"`
	AccessKey  string        `yaml:"access_key"  env:"ARCHIVE_ACCESS_KEY"  validate:"required_if=Enabled true"`
	SecretKey  string        `yaml:"secret_key"  env:"ARCHIVE_SECRET_KEY"  validate:"required_if=Enabled true"`
	Bucket     string        `yaml:"bucket"      env:"ARCHIVE_BUCKET"      env-default:"scan-reports"`
	UseSSL     bool          `yaml:"use_ssl"     env:"ARCHIVE_USE_SSL"     env-default:"false"`
	PresignTTL time.Duration `yaml:"presign_ttl" env:"ARCHIVE_PRESIGN_TTL" env-default:"15m" validate:"gt=0"`
}

// WebSocketConfig — поток событий сессии для оболочки.
type WebSocketConfig struct {
	OriginPatterns []string      `yaml:"origin_patterns" env:"WS_ORIGIN_PATTERNS" env-separator:","`
	WriteTimeout   time.Duration `yaml:"write_timeout"   env:"WS_WRITE_TIMEOUT"   env-default:"5s" validate:"gt=0"`
}

// ViewsConfig — кэш состояния экранов.
type ViewsConfig struct {
	MaxBytes int `yaml:"max_bytes" env:"VIEWS_MAX_BYTES" env-default:"65536" validate:"gt=0"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return validated(&cfg)
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return validated(&cfg)
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return validated(&cfg)
}

func validated(cfg *Config) (*Config, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
