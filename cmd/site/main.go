// Точка входа сайта — публичные страницы и админ-панели коллекций REST backend.
// Загружает конфигурацию, создаёт клиентов коллекций, кэш публичных страниц,
// журнал изменений (PostgreSQL или память), мониторинг зависимостей
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/hydrosite/internal/api/handlers"
	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/config"
	"github.com/bigkaa/hydrosite/internal/database"
	"github.com/bigkaa/hydrosite/internal/repository"
	"github.com/bigkaa/hydrosite/internal/resource"
	"github.com/bigkaa/hydrosite/internal/server"
	"github.com/bigkaa/hydrosite/internal/service"
	uihandlers "github.com/bigkaa/hydrosite/internal/ui/handlers"
	"github.com/bigkaa/hydrosite/internal/ui/i18n"
	"github.com/bigkaa/hydrosite/internal/ui/pages"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Сайт запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend", cfg.API.BaseURL),
	)

	ctx := context.Background()

	// 3. Клиенты коллекций backend
	backend, err := apiclient.NewBackend(cfg.API.BaseURL, cfg.API.Timeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clients := resource.NewClients(backend)

	// 4. Журнал изменений: PostgreSQL, если настроен, иначе память
	var (
		journalStore   repository.JournalRepository
		journalChecker handlers.ReadinessChecker
		journalDB      *sql.DB
		pool           *pgxpool.Pool
	)
	if cfg.JournalEnabled() {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pool, err = database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
		journalDB = stdlib.OpenDBFromPool(pool)
		defer journalDB.Close()

		journalStore = repository.NewJournalRepository(pool)
		journalChecker = database.NewReadinessChecker(pool)
	} else {
		logger.Info("HS_DB_HOST не задан, журнал изменений хранится в памяти",
			slog.Int("capacity", service.DefaultMemoryJournalSize),
		)
		journalStore = service.NewMemoryJournal(service.DefaultMemoryJournalSize)
	}
	journal := service.NewJournalService(journalStore, logger)

	// 5. Кэш публичных страниц и реестр коллекций.
	// Мутация в админ-панели сбрасывает кэш и пишется в журнал.
	cache := service.NewContentCache(cfg.PublicCacheSize, cfg.PublicCacheTTL)
	registry := resource.NewRegistry(clients,
		resource.WithLogger(logger),
		resource.WithMutationHook(cache.MutationHook()),
		resource.WithMutationHook(journal.MutationHook()),
	)
	content := service.NewContentService(clients, cache, logger)

	// 6. topologymetrics — мониторинг зависимостей (backend + PostgreSQL)
	var backendChecker handlers.ReadinessChecker = service.NewBackendReadinessChecker(cfg.API.BaseURL, cfg.API.Timeout)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "hydrosite",
		Group:         cfg.DephealthGroup,
		BackendURL:    cfg.API.BaseURL,
		JournalDB:     journalDB,
		JournalURL:    cfg.DatabaseURL(),
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
		// Readiness по результатам периодической проверки, без запросов на каждый probe
		backendChecker = service.NewDephealthReadinessChecker(dephealthSvc, service.BackendDependencyName)
	}

	// 7. Страницы: переводы и шаблоны
	bundle, err := i18n.Load(logger)
	if err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	renderer, err := pages.NewRenderer()
	if err != nil {
		logger.Error("Ошибка разбора шаблонов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, server.Components{
		Health:   handlers.NewHealthHandler(backendChecker, journalChecker),
		Contract: handlers.NewContractHandler(resource.Descriptors()),
		Export:   handlers.NewExportHandler(registry, logger),
		Public:   uihandlers.NewPublicHandler(content, renderer, bundle, logger),
		Admin:    uihandlers.NewAdminHandler(registry, journal, renderer, bundle, cfg.UploadMaxBytes, logger),
	})
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("Сайт остановлен")
}
