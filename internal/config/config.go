// Пакет config — загрузка и валидация конфигурации Media Gate
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Резерв свободного места по умолчанию: 3 GiB.
const DefaultFreeSpaceReserve = int64(3) << 30

// Config содержит все параметры конфигурации Media Gate.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к внутреннему корню хранилища (обязательный параметр)
	InternalRoot string
	// Путь к внешнему корню хранилища (опционально)
	ExternalRoot string
	// Раздавать UI из встроенного бандла вместо проксирования
	StaticServe bool
	// URL фронтенд dev-сервера для проксирования UI-трафика
	FrontendURL string
	// Базовый URL бэкенда для CORS-заголовков (пусто — CORS выключен)
	BackendBaseURL string
	// Требовать токен сессии для операций записи
	AuthEnabled bool
	// Время жизни сессии
	SessionTTL time.Duration
	// Интервал фоновой очистки истёкших сессий
	SessionSweepInterval time.Duration
	// Размер страницы листинга файлов
	FilePageSize int
	// Резерв свободного места при загрузке (байты)
	FreeSpaceReserve int64
	// Таймаут исходящих запросов проксирования
	ProxyTimeout time.Duration
	// Параметры PostgreSQL
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	// Интервал проверки зависимостей dephealth
	DephealthCheckInterval time.Duration
	// Имя группы dephealth в метриках
	DephealthGroup string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
}

// Load читает конфигурацию из переменных окружения MG_* и валидирует её.
func Load() (*Config, error) {
	cfg := &Config{}

	var err error
	if cfg.Port, err = getEnvInt("MG_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MG_PORT: недопустимый порт %d", cfg.Port)
	}

	if cfg.InternalRoot, err = getEnvRequired("MG_INTERNAL_ROOT"); err != nil {
		return nil, err
	}
	cfg.ExternalRoot = os.Getenv("MG_EXTERNAL_ROOT")

	cfg.StaticServe = getEnvBool("MG_STATIC_SERVE", false)
	cfg.FrontendURL = os.Getenv("MG_FRONTEND_URL")
	if cfg.FrontendURL != "" {
		if _, err := url.Parse(cfg.FrontendURL); err != nil {
			return nil, fmt.Errorf("MG_FRONTEND_URL: %w", err)
		}
	}
	cfg.BackendBaseURL = os.Getenv("MG_BACKEND_BASE_URL")

	cfg.AuthEnabled = getEnvBool("MG_AUTH_ENABLED", true)

	if cfg.SessionTTL, err = getEnvDuration("MG_SESSION_TTL", 120*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getEnvDuration("MG_SESSION_SWEEP_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}

	if cfg.FilePageSize, err = getEnvInt("MG_FILE_PAGE_SIZE", 20); err != nil {
		return nil, err
	}
	if cfg.FilePageSize < 1 {
		return nil, fmt.Errorf("MG_FILE_PAGE_SIZE: должен быть положительным, получено %d", cfg.FilePageSize)
	}

	if cfg.FreeSpaceReserve, err = getEnvInt64("MG_FREE_SPACE_RESERVE", DefaultFreeSpaceReserve); err != nil {
		return nil, err
	}

	if cfg.ProxyTimeout, err = getEnvDuration("MG_PROXY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	cfg.DBHost = getEnvDefault("MG_DB_HOST", "127.0.0.1")
	if cfg.DBPort, err = getEnvInt("MG_DB_PORT", 5432); err != nil {
		return nil, err
	}
	cfg.DBUser = getEnvDefault("MG_DB_USER", "mediagate")
	cfg.DBPassword = getEnvDefault("MG_DB_PASSWORD", "mediagate")
	cfg.DBName = getEnvDefault("MG_DB_NAME", "mediagate")
	cfg.DBSSLMode = getEnvDefault("MG_DB_SSLMODE", "disable")

	if cfg.DephealthCheckInterval, err = getEnvDuration("MG_DEPHEALTH_CHECK_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.DephealthGroup = getEnvDefault("MG_DEPHEALTH_GROUP", "mediagate")

	if cfg.LogLevel, err = parseLogLevel(getEnvDefault("MG_LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	cfg.LogFormat = getEnvDefault("MG_LOG_FORMAT", "text")
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("MG_LOG_FORMAT: ожидается text или json, получено %q", cfg.LogFormat)
	}

	if cfg.HTTPReadTimeout, err = getEnvDuration("MG_HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	// Write timeout не ограничиваем: стриминг больших файлов может
	// занимать произвольное время, запрос владеет своим worker'ом.
	if cfg.HTTPWriteTimeout, err = getEnvDuration("MG_HTTP_WRITE_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getEnvDuration("MG_HTTP_IDLE_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("MG_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabaseDSN возвращает postgres:// строку подключения.
func (c *Config) DatabaseDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}
	q := url.Values{}
	if c.DBSSLMode != "" {
		q.Set("sslmode", c.DBSSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// StorageRoot возвращает корень хранилища для целевого хранилища
// ("internal" или "external"). Пустая строка — корень не настроен.
func (c *Config) StorageRoot(target string) (string, bool) {
	switch target {
	case "internal":
		return c.InternalRoot, c.InternalRoot != ""
	case "external":
		return c.ExternalRoot, c.ExternalRoot != ""
	default:
		return "", false
	}
}

// SetupLogger создаёт slog-логгер согласно конфигурации
// и устанавливает его как логгер по умолчанию.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: ожидается целое число, получено %q", key, raw)
	}
	return val, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: ожидается целое число, получено %q", key, raw)
	}
	return val, nil
}

func getEnvBool(key string, defaultVal bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: ожидается duration (например 30s), получено %q", key, raw)
	}
	return val, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("MG_LOG_LEVEL: неизвестный уровень %q", raw)
	}
}
