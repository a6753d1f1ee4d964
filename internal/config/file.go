// file.go — файл конфигурации CLI sitectl (TOML).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// CLIConfig — содержимое $XDG_CONFIG_HOME/sitectl/config.toml.
type CLIConfig struct {
	API CLIAPIConfig `toml:"api"`
	Log CLILogConfig `toml:"log"`
}

// CLIAPIConfig — параметры backend для CLI.
type CLIAPIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout,omitempty"` // формат Go: 15s, 1m
}

// CLILogConfig — логирование CLI (по умолчанию warn, text).
type CLILogConfig struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
}

// ReadCLIConfig декодирует CLIConfig из reader.
func ReadCLIConfig(r io.Reader) (*CLIConfig, error) {
	var cfg CLIConfig
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("декодирование конфигурации: %w", err)
	}
	return &cfg, nil
}

// WriteCLIConfig кодирует CLIConfig в writer.
func WriteCLIConfig(w io.Writer, cfg *CLIConfig) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("кодирование конфигурации: %w", err)
	}
	return nil
}

// DefaultCLIConfigPath возвращает путь к файлу конфигурации CLI.
func DefaultCLIConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("каталог конфигурации пользователя: %w", err)
	}
	return filepath.Join(dir, "sitectl", "config.toml"), nil
}

// ReadCLIConfigFile читает файл конфигурации CLI.
// Отсутствующий файл не ошибка: возвращается пустая конфигурация.
func ReadCLIConfigFile(path string) (*CLIConfig, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &CLIConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("открытие %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := ReadCLIConfig(f)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}
	return cfg, nil
}

// InitCLIConfigFile создаёт файл конфигурации CLI. Существующий файл не перезаписывается.
func InitCLIConfigFile(path string, cfg *CLIConfig) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("файл конфигурации уже существует: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("создание каталога конфигурации: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("создание %s: %w", path, err)
	}
	defer f.Close()

	return WriteCLIConfig(f, cfg)
}

// ResolveCLIAPI собирает параметры backend для CLI.
// Приоритет: флаг --api, затем HS_API_BASE_URL, затем файл.
func ResolveCLIAPI(file *CLIConfig, flagBaseURL string) (API, error) {
	var api API

	base := flagBaseURL
	if base == "" {
		base = os.Getenv("HS_API_BASE_URL")
	}
	if base == "" && file != nil {
		base = file.API.BaseURL
	}
	if base == "" {
		return api, fmt.Errorf("базовый URL backend не задан: используйте --api, HS_API_BASE_URL или api.base_url в файле конфигурации")
	}

	var err error
	api.BaseURL, err = NormalizeBaseURL(base)
	if err != nil {
		return api, err
	}

	api.Timeout = 15 * time.Second
	timeout := os.Getenv("HS_API_TIMEOUT")
	if timeout == "" && file != nil {
		timeout = file.API.Timeout
	}
	if timeout != "" {
		api.Timeout, err = time.ParseDuration(timeout)
		if err != nil {
			return api, fmt.Errorf("некорректный таймаут %q: %w", timeout, err)
		}
		if api.Timeout <= 0 {
			return api, fmt.Errorf("таймаут должен быть положительным")
		}
	}
	return api, nil
}
