// Пакет static — встроенный бандл front-end (SPA).
// Файлы встраиваются в бинарник через //go:embed и раздаются через HTTP,
// когда шлюз работает в режиме статической раздачи (MG_STATIC_SERVE).
//
// Директория ассетов бандла хранится как app/: go:embed не включает
// директории с ведущим подчёркиванием, поэтому запросы к _app/...
// переотображаются на app/... при разрешении пути.
package static

import (
	"embed"
	"io/fs"
	"mime"
	"path"
	"strings"
)

//go:embed dist
var content embed.FS

// Bundle возвращает fs.FS с корнем в директории бандла.
func Bundle() (fs.FS, error) {
	return fs.Sub(content, "dist")
}

// ResolvePath приводит путь запроса к пути файла в бандле:
//   - пустой путь → index.html
//   - путь без расширения → путь + ".html"
//   - ведущий сегмент _app/ → app/
func ResolvePath(requestPath string) string {
	p := strings.TrimPrefix(path.Clean("/"+requestPath), "/")
	if p == "" || p == "." {
		return "index.html"
	}

	if strings.HasPrefix(p, "_app/") {
		p = "app/" + strings.TrimPrefix(p, "_app/")
	}

	if path.Ext(p) == "" {
		p += ".html"
	}
	return p
}

// ContentType возвращает MIME-тип по расширению файла бандла.
func ContentType(assetPath string) string {
	if ct := mime.TypeByExtension(path.Ext(assetPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
