package static

import (
	"strings"
	"testing"
)

// TestResolvePath проверяет отображение путей запросов в пути бандла.
func TestResolvePath(t *testing.T) {
	tests := []struct {
		request string
		want    string
	}{
		{"/", "index.html"},
		{"", "index.html"},
		{"/settings", "settings.html"},
		{"/favicon.png", "favicon.png"},
		{"/_app/bundle.js", "app/bundle.js"},
		{"/_app/immutable/chunk.css", "app/immutable/chunk.css"},
		{"/app/bundle.js", "app/bundle.js"},
		{"/../../etc/passwd", "etc/passwd.html"},
		{"//double//slash", "double/slash.html"},
	}

	for _, tt := range tests {
		if got := ResolvePath(tt.request); got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, ожидалось %q", tt.request, got, tt.want)
		}
	}
}

// TestBundleContainsIndex проверяет, что встроенный бандл открывается
// и содержит точку входа.
func TestBundleContainsIndex(t *testing.T) {
	bundle, err := Bundle()
	if err != nil {
		t.Fatalf("Bundle вернул ошибку: %v", err)
	}
	f, err := bundle.Open("index.html")
	if err != nil {
		t.Fatalf("index.html отсутствует в бандле: %v", err)
	}
	f.Close()

	// Ассеты лежат в app/, несмотря на _app/ в путях запросов
	f, err = bundle.Open("app/bundle.js")
	if err != nil {
		t.Fatalf("app/bundle.js отсутствует в бандле: %v", err)
	}
	f.Close()
}

// TestContentType проверяет определение MIME-типа по расширению.
func TestContentType(t *testing.T) {
	if ct := ContentType("app/bundle.css"); !strings.Contains(ct, "text/css") {
		t.Errorf("ContentType(css) = %q, ожидался text/css", ct)
	}
	if ct := ContentType("binary.unknownext"); ct != "application/octet-stream" {
		t.Errorf("ContentType(unknown) = %q, ожидался octet-stream", ct)
	}
}
