// Точка входа Media Gate — шлюза раздачи и приёма медиафайлов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/mediagate/internal/api/handlers"
	"github.com/bigkaa/mediagate/internal/auth"
	"github.com/bigkaa/mediagate/internal/config"
	"github.com/bigkaa/mediagate/internal/database"
	"github.com/bigkaa/mediagate/internal/relay"
	"github.com/bigkaa/mediagate/internal/repository"
	"github.com/bigkaa/mediagate/internal/server"
	"github.com/bigkaa/mediagate/internal/service"
	"github.com/bigkaa/mediagate/internal/storage/filestore"
	"github.com/bigkaa/mediagate/internal/ui/static"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Media Gate запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Bool("auth_enabled", cfg.AuthEnabled),
		slog.Bool("static_serve", cfg.StaticServe),
	)

	ctx := context.Background()

	// --- Инициализация компонентов ---

	// 1. База данных: миграции и пул соединений
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка применения миграций", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к базе данных", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 2. Репозитории
	files := repository.NewFileRepository(pool)
	performers := repository.NewPerformerRepository(pool)
	categories := repository.NewCategoryRepository(pool)
	users := repository.NewUserRepository(pool)

	// 3. Файловое хранилище
	roots := []string{cfg.InternalRoot}
	if cfg.ExternalRoot != "" {
		roots = append(roots, cfg.ExternalRoot)
	}
	store, err := filestore.New(roots...)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Сервисы
	streamSvc := service.NewStreamService(files, store, logger)
	uploadSvc := service.NewUploadService(cfg, store, files, logger)
	consistencySvc := service.NewConsistencyService(files, store, roots, logger)

	// 5. Сессии: in-memory store с фоновой очисткой
	sessions := auth.NewStore(cfg.SessionTTL, cfg.SessionSweepInterval, logger)
	sessions.Start(ctx)
	defer sessions.Stop()

	// 6. topologymetrics — мониторинг зависимостей
	sqlDB := stdlib.OpenDBFromPool(pool)
	dephealthSvc, err := service.NewDephealthService(
		"mediagate",
		cfg.DephealthGroup,
		sqlDB,
		cfg.DatabaseDSN(),
		cfg.FrontendURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка инициализации dephealth", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Error("Ошибка запуска dephealth", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dephealthSvc.Stop()

	// 7. Фронтенд: встроенный бандл или проксирование
	var uiHandler *handlers.UIHandler
	switch {
	case cfg.StaticServe:
		bundle, bundleErr := static.Bundle()
		if bundleErr != nil {
			logger.Error("Ошибка загрузки встроенного бандла", slog.String("error", bundleErr.Error()))
			os.Exit(1)
		}
		uiHandler = handlers.NewUIHandler(bundle, nil, logger)
	case cfg.FrontendURL != "":
		rl := relay.New(cfg.FrontendURL, cfg.ProxyTimeout, logger)
		uiHandler = handlers.NewUIHandler(nil, rl, logger)
	default:
		uiHandler = handlers.NewUIHandler(nil, nil, logger)
	}

	// 8. Обработчики API
	thumbnailsHandler, err := handlers.NewThumbnailsHandler(files, consistencySvc, logger)
	if err != nil {
		logger.Error("Ошибка инициализации кэша миниатюр", slog.String("error", err.Error()))
		os.Exit(1)
	}

	h := server.Handlers{
		Files:      handlers.NewFilesHandler(cfg, files, performers, categories, streamSvc, uploadSvc, store, thumbnailsHandler, logger),
		Performers: handlers.NewPerformersHandler(performers, logger),
		Categories: handlers.NewCategoriesHandler(categories, logger),
		Thumbnails: thumbnailsHandler,
		System:     handlers.NewSystemHandler(consistencySvc, thumbnailsHandler, logger),
		Auth:       handlers.NewAuthHandler(users, sessions, logger),
		UI:         uiHandler,
	}

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, h, sessions)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
