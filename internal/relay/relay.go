// Пакет relay — проксирование UI-трафика к front-end dev-серверу.
//
// Один входящий запрос порождает ровно один исходящий: метод и заголовки
// воспроизводятся, тело не пересылается (GET-style passthrough),
// ответ upstream транслируется клиенту потоково. Короткие таймауты
// соединения и чтения не дают запросу зависнуть на недоступном upstream.
package relay

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
)

// Relay — транслятор запросов к upstream front-end.
type Relay struct {
	upstreamBase string
	client       *http.Client
	logger       *slog.Logger
}

// New создаёт Relay для upstreamBase (например, http://127.0.0.1:5173).
// timeout ограничивает и установление соединения, и запрос целиком.
func New(upstreamBase string, timeout time.Duration, logger *slog.Logger) *Relay {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   10,
	}

	return &Relay{
		upstreamBase: upstreamBase,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger.With(slog.String("component", "relay")),
	}
}

// Forward выполняет один проксирующий запрос и транслирует ответ.
// Любая ошибка построения URL или соединения — 500 с JSON-телом.
func (rl *Relay) Forward(w http.ResponseWriter, r *http.Request) {
	target, err := rl.buildTarget(r.URL)
	if err != nil {
		rl.logger.Error("Ошибка построения URL upstream",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to build upstream URL", "")
		return
	}

	// Тело не пересылается: UI-трафик — это GET-запросы ассетов
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, http.NoBody)
	if err != nil {
		apierrors.InternalServerError(w, "Failed to build upstream request", "")
		return
	}
	copyHeaders(req.Header, r.Header)

	resp, err := rl.client.Do(req)
	if err != nil {
		rl.logger.Warn("Ошибка соединения с upstream",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Upstream connection failed: "+err.Error(), "")
		return
	}
	defer resp.Body.Close()

	// Транслируем заголовки upstream, не затирая уже установленные
	// (например, CORS-заголовки middleware)
	for key, values := range resp.Header {
		if w.Header().Get(key) != "" {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// Клиент разорвал соединение: worker не падает
		rl.logger.Debug("Трансляция ответа прервана",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
	}
}

// buildTarget собирает URL upstream из базового адреса и пути запроса.
func (rl *Relay) buildTarget(u *url.URL) (string, error) {
	base, err := url.Parse(rl.upstreamBase)
	if err != nil {
		return "", err
	}

	target := *base
	target.Path = u.Path
	target.RawQuery = u.RawQuery
	return target.String(), nil
}

// copyHeaders воспроизводит входящие заголовки в исходящем запросе.
// Hop-by-hop заголовки не копируются.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		switch http.CanonicalHeaderKey(key) {
		case "Connection", "Keep-Alive", "Proxy-Connection", "Transfer-Encoding", "Upgrade":
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
