package config

import (
	"fmt"
	"log/slog"
	"strconv"
)

// DevBackend — параметры dev-backend (cmd/site-devbackend).
type DevBackend struct {
	// Порт HTTP-сервера backend
	Port int
	// Seed — заполнить коллекции демо-данными при старте
	Seed      bool
	LogLevel  slog.Level
	LogFormat string
}

// LoadDevBackend читает HS_DEV_BACKEND_PORT, HS_DEV_BACKEND_SEED,
// HS_LOG_LEVEL и HS_LOG_FORMAT. HS_API_BASE_URL dev-backend не нужен.
func LoadDevBackend() (*DevBackend, error) {
	cfg := &DevBackend{}
	var err error

	cfg.Port, err = getEnvInt("HS_DEV_BACKEND_PORT", 3001)
	if err != nil {
		return nil, fmt.Errorf("HS_DEV_BACKEND_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("HS_DEV_BACKEND_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.Seed, err = strconv.ParseBool(getEnvDefault("HS_DEV_BACKEND_SEED", "true"))
	if err != nil {
		return nil, fmt.Errorf("HS_DEV_BACKEND_SEED: некорректное логическое значение")
	}

	cfg.LogLevel, err = ParseLogLevel(getEnvDefault("HS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("HS_LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = getEnvDefault("HS_LOG_FORMAT", "text")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("HS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	return cfg, nil
}
