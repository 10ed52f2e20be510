package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/mediagate/internal/api/handlers"
	"github.com/bigkaa/mediagate/internal/auth"
	"github.com/bigkaa/mediagate/internal/config"
	"github.com/bigkaa/mediagate/internal/relay"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeTestServer собирает router в режиме проксирования фронтенда.
// upstream записывает пути попавших на него запросов.
func makeTestServer(t *testing.T) (http.Handler, *[]string) {
	t.Helper()

	var seen []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	logger := testLogger()
	cfg := &config.Config{Port: 8080, AuthEnabled: true}
	sessions := auth.NewStore(time.Minute, time.Minute, logger)

	rl := relay.New(upstream.URL, 5*time.Second, logger)
	h := Handlers{
		System: handlers.NewSystemHandler(nil, nil, logger),
		UI:     handlers.NewUIHandler(nil, rl, logger),
	}

	srv := New(cfg, logger, h, sessions)
	return srv.httpServer.Handler, &seen
}

func TestRouterUnknownAPIPathReturns404(t *testing.T) {
	router, seen := makeTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/server/no-such-endpoint", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Ожидался статус 404, получен %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Ожидался Content-Type application/json, получен %q", ct)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Ошибка декодирования тела ответа: %v", err)
	}
	if body.Message == "" {
		t.Error("Ожидалось непустое поле message в теле ответа")
	}

	if len(*seen) != 0 {
		t.Errorf("API-запрос не должен уходить на upstream, получено: %v", *seen)
	}
}

func TestRouterMethodMismatchUnderAPIPrefixReturns404(t *testing.T) {
	router, seen := makeTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/server/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Ожидался статус 404, получен %d", rec.Code)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Ошибка декодирования тела ответа: %v", err)
	}
	if body.Message == "" {
		t.Error("Ожидалось непустое поле message в теле ответа")
	}

	if len(*seen) != 0 {
		t.Errorf("API-запрос не должен уходить на upstream, получено: %v", *seen)
	}
}

func TestRouterNonAPIPathForwardedToFrontend(t *testing.T) {
	router, seen := makeTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/some/page", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Ожидался статус 200 от upstream, получен %d", rec.Code)
	}
	if len(*seen) != 1 || (*seen)[0] != "/some/page" {
		t.Errorf("Ожидался запрос /some/page на upstream, получено: %v", *seen)
	}
}
