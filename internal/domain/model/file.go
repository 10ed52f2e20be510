// Пакет model — доменные сущности Media Gate.
package model

import "regexp"

// FileRecord — запись метаданных одного медиафайла.
// Имя и локатор уникальны в пределах хранилища метаданных.
type FileRecord struct {
	// ID — уникальный идентификатор записи.
	ID int64 `json:"id"`
	// Name — имя файла (уникальное).
	Name string `json:"name"`
	// Locator — непрозрачный указатель на файл (абсолютный путь).
	Locator string `json:"-"`
	// Thumbnail — миниатюра в base64 (опционально).
	Thumbnail *string `json:"-"`
	// Size — размер файла в байтах.
	Size int64 `json:"size"`
}

// Performer — исполнитель, связанный с файлами (m:n).
type Performer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category — категория, связанная с файлами (m:n).
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// namePattern — допустимые имена исполнителей и категорий:
// от 1 до 20 символов, только буквы и пробелы.
var namePattern = regexp.MustCompile(`^[\p{L} ]{1,20}$`)

// ValidEntityName проверяет имя исполнителя или категории.
func ValidEntityName(name string) bool {
	return namePattern.MatchString(name)
}
