// Пакет config — загрузка и валидация конфигурации сайта
// из переменных окружения (и файла .env в режиме разработки).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// API — параметры подключения к REST backend.
// Единственный источник base URL для всех ресурсов.
type API struct {
	// Базовый URL backend (без trailing slash), например https://api.example.com
	BaseURL string
	// Таймаут одного HTTP-запроса к backend
	Timeout time.Duration
}

// Config содержит все параметры конфигурации сайта.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Backend ---

	API API
	// Максимальный размер загружаемого файла в админ-панели (байт)
	UploadMaxBytes int64

	// --- Кэш публичных страниц ---

	// TTL записи кэша (0 — кэш отключён)
	PublicCacheTTL time.Duration
	// Максимальное количество записей кэша
	PublicCacheSize int

	// --- PostgreSQL (журнал изменений, опционально) ---

	// Хост PostgreSQL; пустое значение отключает журнал
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Файл .env в текущем каталоге подхватывается, если существует;
// уже заданные переменные окружения он не перезаписывает.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// HS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("HS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("HS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("HS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = ParseLogLevel(getEnvDefault("HS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("HS_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("HS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("HS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Backend ---

	cfg.API, err = LoadAPI()
	if err != nil {
		return nil, err
	}

	cfg.UploadMaxBytes, err = getEnvInt64("HS_UPLOAD_MAX_BYTES", 25<<20)
	if err != nil {
		return nil, fmt.Errorf("HS_UPLOAD_MAX_BYTES: %w", err)
	}
	if cfg.UploadMaxBytes < 1 {
		return nil, fmt.Errorf("HS_UPLOAD_MAX_BYTES: значение должно быть положительным")
	}

	// --- Кэш ---

	cfg.PublicCacheTTL, err = getEnvDuration("HS_PUBLIC_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HS_PUBLIC_CACHE_TTL: %w", err)
	}
	if cfg.PublicCacheTTL < 0 {
		return nil, fmt.Errorf("HS_PUBLIC_CACHE_TTL: отрицательная длительность")
	}

	cfg.PublicCacheSize, err = getEnvInt("HS_PUBLIC_CACHE_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("HS_PUBLIC_CACHE_SIZE: %w", err)
	}
	if cfg.PublicCacheSize < 1 {
		return nil, fmt.Errorf("HS_PUBLIC_CACHE_SIZE: значение %d должно быть >= 1", cfg.PublicCacheSize)
	}

	// --- PostgreSQL ---

	// HS_DB_HOST — опционально; без него журнал изменений не ведётся
	cfg.DBHost = getEnvDefault("HS_DB_HOST", "")
	if cfg.DBHost != "" {
		if err := loadDB(cfg); err != nil {
			return nil, err
		}
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("HS_DEPHEALTH_GROUP", "hydrosite")
	cfg.DephealthCheckInterval, err = getEnvDuration("HS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("HS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// LoadAPI читает только параметры backend. Используется dev-backend
// и CLI, которым не нужна остальная конфигурация сервера.
func LoadAPI() (API, error) {
	var api API

	base, err := getEnvRequired("HS_API_BASE_URL")
	if err != nil {
		return api, err
	}
	api.BaseURL, err = NormalizeBaseURL(base)
	if err != nil {
		return api, fmt.Errorf("HS_API_BASE_URL: %w", err)
	}

	api.Timeout, err = getEnvDuration("HS_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return api, fmt.Errorf("HS_API_TIMEOUT: %w", err)
	}
	if api.Timeout <= 0 {
		return api, fmt.Errorf("HS_API_TIMEOUT: длительность должна быть положительной")
	}

	return api, nil
}

// loadDB читает параметры PostgreSQL, когда задан HS_DB_HOST.
func loadDB(cfg *Config) error {
	var err error

	cfg.DBPort, err = getEnvInt("HS_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("HS_DB_PORT: %w", err)
	}

	if cfg.DBName, err = getEnvRequired("HS_DB_NAME"); err != nil {
		return err
	}
	if cfg.DBUser, err = getEnvRequired("HS_DB_USER"); err != nil {
		return err
	}
	if cfg.DBPassword, err = getEnvRequired("HS_DB_PASSWORD"); err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("HS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("HS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// JournalEnabled сообщает, настроен ли PostgreSQL для журнала изменений.
func (c *Config) JournalEnabled() bool {
	return c.DBHost != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL в формате golang-migrate (pgx5://...).
func (c *Config) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword), c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	return NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// NewLogger создаёт slog-логгер и делает его глобальным.
func NewLogger(level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// NormalizeBaseURL проверяет, что URL абсолютный (http/https), и убирает trailing slash.
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL %q должен начинаться с http:// или https://", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q не содержит хост", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
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
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// ParseLogLevel преобразует строку уровня логирования в slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
