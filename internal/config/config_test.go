package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile — утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir — смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// Полный корректный YAML под текущую структуру config.go.
const sampleYAML = `
env: "prod"
http:
  host: "0.0.0.0"
  port: "8080"
metrics:
  host: "127.0.0.1"
  port: "9090"
backend:
  base_url: "https://scan.example.com/api/v1"
  user_agent: "console-test"
timeouts:
  service: "3s"
  refresh: "4s"
storage:
  driver: "redis"
  redis_url: "redis://localhost:6379/0"
  prefix: "c:"
session:
  expired_message: "Session over"
archive:
  enabled: true
  endpoint: "localhost:9000"
  access_key: "minio"
  secret_key: "minio123"
  bucket: "reports"
  presign_ttl: "1h"
websocket:
  origin_patterns: ["localhost:*", "console.example.com"]
  write_timeout: "2s"
views:
  max_bytes: 1024
`

// Минимальный YAML (всё остальное — через дефолты/ENV).
const minimalYAML = `
env: "dev"
`

// Некорректный YAML для проверки сообщений об ошибке.
const brokenYAML = `
env: [unclosed
`

func TestHTTPConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := HTTPConfig{Host: "127.0.0.1", Port: "8080"}
	require.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

func TestMetricsConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := MetricsConfig{Host: "127.0.0.1", Port: "9090"}
	require.Equal(t, "127.0.0.1:9090", cfg.Addr())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	require.Equal(t, "127.0.0.1:9090", cfg.Metrics.Addr())

	require.Equal(t, "https://scan.example.com/api/v1", cfg.Backend.BaseURL)
	require.Equal(t, "console-test", cfg.Backend.UserAgent)

	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)
	require.Equal(t, 4*time.Second, cfg.Timeouts.Refresh)

	require.Equal(t, "redis", cfg.Storage.Driver)
	require.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
	require.Equal(t, "c:", cfg.Storage.Prefix)

	require.Equal(t, "Session over", cfg.Session.ExpiredMessage)

	require.True(t, cfg.Archive.Enabled)
	require.Equal(t, "reports", cfg.Archive.Bucket)
	require.Equal(t, time.Hour, cfg.Archive.PresignTTL)

	require.Equal(t, []string{"localhost:*", "console.example.com"}, cfg.WebSocket.OriginPatterns)
	require.Equal(t, 2*time.Second, cfg.WebSocket.WriteTimeout)
	require.Equal(t, 1024, cfg.Views.MaxBytes)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, t.TempDir(), "min.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "127.0.0.1:50090", cfg.HTTP.Addr())
	require.Equal(t, "file", cfg.Storage.Driver)
	require.Equal(t, "./data/console.json", cfg.Storage.Path)
	require.Equal(t, 15*time.Second, cfg.Timeouts.Service)
	require.Equal(t, 10*time.Second, cfg.Timeouts.Refresh)
	require.False(t, cfg.Archive.Enabled)
	require.NotEmpty(t, cfg.Session.ExpiredMessage)
	require.Equal(t, 65536, cfg.Views.MaxBytes)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_Validation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown env":        `env: "stage"`,
		"unknown driver":     `storage: { driver: "sqlite" }`,
		"redis without url":  `storage: { driver: "redis" }`,
		"archive incomplete": `archive: { enabled: true, endpoint: "localhost:9000" }`,
		"bad backend url":    `backend: { base_url: "not a url" }`,
	}

	for name, data := range cases {
		data := data
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfgPath := writeFile(t, t.TempDir(), "c.yaml", data)
			_, err := Load(cfgPath)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	require.Equal(t, "8080", cfg.HTTP.Port)
}

// CONFIG_PATH важнее local.yaml.
func TestLoad_Priority_ENVWinsOverLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, ".", "local.yaml", `
env: "local"
http: { host: "127.0.0.1", port: "7777" }
`)

	envPath := writeFile(t, dir, "from_env.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", envPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
}

// Явный путь важнее CONFIG_PATH и local.yaml.
func TestLoad_Priority_ExplicitWinsOverEnvAndLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	explicit := writeFile(t, dir, "explicit.yaml", `
env: "prod"
http: { host: "0.0.0.0", port: "8080" }
`)
	badFromEnv := writeFile(t, dir, "bad.yaml", brokenYAML)
	t.Setenv("CONFIG_PATH", badFromEnv)
	writeFile(t, ".", "local.yaml", `
env: "local"
http: { host: "127.0.0.1", port: "9999" }
`)

	cfg, err := Load(explicit)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	require.Equal(t, "8080", cfg.HTTP.Port)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("HTTP_PORT", "18080")
	t.Setenv("BACKEND_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("REFRESH_TIMEOUT", "7s")
	t.Setenv("STORAGE_PREFIX", "other:")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "18080", cfg.HTTP.Port)
	require.Equal(t, "http://10.0.0.5:8080", cfg.Backend.BaseURL)
	require.Equal(t, 7*time.Second, cfg.Timeouts.Refresh)
	require.Equal(t, "other:", cfg.Storage.Prefix)
}

// «Только ENV» без файлов.
func TestLoad_EnvOnly_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	t.Setenv("ENV", "dev")
	t.Setenv("HTTP_PORT", "50091")
	t.Setenv("BACKEND_BASE_URL", "https://scan.example.com")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("WS_ORIGIN_PATTERNS", "localhost:*,127.0.0.1:*")
	t.Setenv("SERVICE", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "50091", cfg.HTTP.Port)
	require.Equal(t, "https://scan.example.com", cfg.Backend.BaseURL)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, []string{"localhost:*", "127.0.0.1:*"}, cfg.WebSocket.OriginPatterns)
	require.Equal(t, 2*time.Second, cfg.Timeouts.Service)
}

func TestMustLoad_OK(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "ok.yaml", minimalYAML)

	cfg := MustLoad(cfgPath)
	require.NotNil(t, cfg)
	require.Equal(t, "dev", cfg.Env)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
