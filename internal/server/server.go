// Пакет server — HTTP-сервер шлюза с graceful shutdown.
// Без TLS — termination на внешнем reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/api/handlers"
	"github.com/bigkaa/mediagate/internal/api/middleware"
	"github.com/bigkaa/mediagate/internal/auth"
	"github.com/bigkaa/mediagate/internal/config"
)

// Handlers — набор обработчиков, монтируемых на router.
type Handlers struct {
	Files      *handlers.FilesHandler
	Performers *handlers.PerformersHandler
	Categories *handlers.CategoriesHandler
	Thumbnails *handlers.ThumbnailsHandler
	System     *handlers.SystemHandler
	Auth       *handlers.AuthHandler
	UI         *handlers.UIHandler
}

// Server — HTTP-сервер шлюза.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers, sessions *auth.Store) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORS(cfg.BackendBaseURL))
	router.Use(middleware.Recoverer(logger))

	router.Route("/server", func(r chi.Router) {
		// Внутри API-префикса несовпавший путь или метод — всегда
		// структурированный 404, во фронтенд такой трафик не уходит.
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			apierrors.NotFound(w, "Unknown API endpoint")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			apierrors.NotFound(w, "Unknown API endpoint")
		})

		// Открытые маршруты: чтение, стриминг, вход
		r.Get("/status", h.System.Status)
		r.Get("/files", h.Files.List)
		r.Get("/file", h.Files.Stream)
		r.Get("/fileDetails/{fileID}", h.Files.Details)
		r.Get("/name", h.Files.Name)
		r.Get("/thumbnail", h.Thumbnails.Get)
		r.Get("/performers", h.Performers.List)
		r.Get("/categories", h.Categories.List)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		// Изменяющие маршруты — только с валидной сессией
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(sessions, cfg.AuthEnabled))

			r.Post("/file", h.Files.Upload)
			r.Put("/file/{fileID}/rename", h.Files.Rename)
			r.Delete("/file", h.Files.Delete)
			r.Post("/file/{fileID}/performer", h.Files.Associate)
			r.Post("/file/{fileID}/category", h.Files.AssociateCategory)

			r.Post("/performers", h.Performers.Create)
			r.Put("/performer/{performerID}", h.Performers.Update)
			r.Delete("/performer/{performerID}", h.Performers.Delete)
			r.Post("/deletePerformers", h.Performers.BulkDelete)

			r.Post("/categories", h.Categories.Create)
			r.Delete("/category/{categoryID}", h.Categories.Delete)

			r.Post("/thumbnail", h.Thumbnails.Set)

			r.Post("/scan", h.System.Scan)
			r.Put("/repair", h.System.Repair)
			r.Delete("/cleanup", h.System.Cleanup)
		})
	})

	router.Handle("/metrics", promhttp.Handler())

	// Всё, что не попало в API — трафик фронтенда
	router.NotFound(h.UI.Serve)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
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

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
