package handlers

import (
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/relay"
	"github.com/bigkaa/mediagate/internal/ui/static"
)

// UIHandler — обработчик всех запросов вне API-префикса.
// Режимы: раздача встроенного бандла, проксирование на upstream
// фронтенда или 404, если ни один не настроен.
type UIHandler struct {
	bundle fs.FS
	relay  *relay.Relay
	logger *slog.Logger
}

// NewUIHandler создаёт UI-обработчик. bundle и rl могут быть nil —
// раздача встроенных файлов имеет приоритет над проксированием.
func NewUIHandler(bundle fs.FS, rl *relay.Relay, logger *slog.Logger) *UIHandler {
	return &UIHandler{
		bundle: bundle,
		relay:  rl,
		logger: logger.With(slog.String("component", "ui_handler")),
	}
}

// Serve обрабатывает запрос фронтенда.
func (h *UIHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.bundle != nil {
		h.serveStatic(w, r)
		return
	}
	if h.relay != nil {
		h.relay.Forward(w, r)
		return
	}
	apierrors.NotFound(w, "Frontend not configured")
}

// serveStatic отдаёт файл встроенного бандла.
func (h *UIHandler) serveStatic(w http.ResponseWriter, r *http.Request) {
	assetPath := static.ResolvePath(r.URL.Path)

	f, err := h.bundle.Open(assetPath)
	if err != nil {
		apierrors.NotFound(w, "Page not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", static.ContentType(assetPath))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Debug("Прерванная отдача статики",
			slog.String("path", assetPath),
			slog.String("error", err.Error()),
		)
	}
}
