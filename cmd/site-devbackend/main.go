// Точка входа dev-backend — REST backend контента в памяти для локальной
// разработки сайта и sitectl. Данные теряются при остановке.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bigkaa/hydrosite/internal/config"
	"github.com/bigkaa/hydrosite/internal/devbackend"
)

func main() {
	cfg, err := config.LoadDevBackend()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	backend := devbackend.New(logger)
	if cfg.Seed {
		if err := backend.SeedDemo(); err != nil {
			logger.Error("Ошибка заполнения демо-данными", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Коллекции заполнены демо-данными")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      backend.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dev-backend запущен", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при graceful shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Dev-backend остановлен")
}
