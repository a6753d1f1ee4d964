// Пакет server — HTTP-сервер сайта с graceful shutdown.
// Без TLS — TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/hydrosite/internal/api/errors"
	"github.com/bigkaa/hydrosite/internal/api/handlers"
	"github.com/bigkaa/hydrosite/internal/api/middleware"
	"github.com/bigkaa/hydrosite/internal/config"
	uihandlers "github.com/bigkaa/hydrosite/internal/ui/handlers"
	"github.com/bigkaa/hydrosite/internal/ui/i18n"
	"github.com/bigkaa/hydrosite/internal/ui/static"
)

// Components — обработчики, из которых собираются маршруты сайта.
type Components struct {
	Health   *handlers.HealthHandler
	Contract *handlers.ContractHandler
	Export   *handlers.ExportHandler
	Public   *uihandlers.PublicHandler
	Admin    *uihandlers.AdminHandler
}

// Server — HTTP-сервер сайта.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, c Components) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, c),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты сайта.
func NewRouter(logger *slog.Logger, c Components) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Служебные endpoints — JSON, без языка
	router.Get("/health/live", c.Health.HealthLive)
	router.Get("/health/ready", c.Health.HealthReady)
	router.Get("/metrics", c.Health.GetMetrics)
	router.Method(http.MethodGet, "/openapi.json", c.Contract)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware())

		r.Get("/", c.Public.HandleHome)
		r.Get("/projects", c.Public.HandleProjects)
		r.Get("/faq", c.Public.HandleFAQ)
		r.Get("/gallery", c.Public.HandleGallery)
		r.Get("/notices", c.Public.HandleNotices)
		r.Get("/services", c.Public.HandleServices)
		r.Post("/set-language", uihandlers.HandleSetLanguage)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/", c.Admin.HandleIndex)
			r.Get("/activity", c.Admin.HandleActivity)
			r.Get("/{resource}", c.Admin.HandleList)
			r.Post("/{resource}", c.Admin.HandleSubmit)
			r.Get("/{resource}/export", c.Export.ServeHTTP)
			r.Get("/{resource}/{id}/edit", c.Admin.HandleEdit)
			r.Get("/{resource}/{id}/delete", c.Admin.HandleDeleteConfirm)
			r.Post("/{resource}/{id}/delete", c.Admin.HandleDelete)
		})

		r.NotFound(c.Public.HandleNotFound)
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.MethodNotAllowed(w, fmt.Sprintf("метод %s не поддерживается для %s", r.Method, r.URL.Path))
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
