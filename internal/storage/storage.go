// Пакет storage — абстракция доступа к хранилищу файлов.
// Ядро работает только с непрозрачными локаторами; любой бэкенд
// (локальная файловая система, object store) реализует Storage.
package storage

import (
	"io"
	"os"
)

// File — открытый для чтения файл хранилища.
// Seek необходим для отдачи байтовых диапазонов.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
	Stat() (os.FileInfo, error)
}

// Entry — один файл в листинге корня хранилища.
type Entry struct {
	// Name — имя файла без пути.
	Name string
	// Locator — непрозрачный локатор для последующих операций.
	Locator string
	// Size — размер в байтах.
	Size int64
}

// Storage — возможности хранилища, необходимые ядру шлюза.
type Storage interface {
	// Open открывает файл по локатору для чтения.
	Open(locator string) (File, error)
	// Stat возвращает информацию о файле по локатору.
	Stat(locator string) (os.FileInfo, error)
	// List возвращает обычные файлы в корне root (не рекурсивно).
	List(root string) ([]Entry, error)
	// Exists сообщает, разрешается ли локатор в существующий читаемый файл.
	Exists(locator string) bool
	// FreeSpace возвращает объём доступного места в корне root (байты).
	FreeSpace(root string) (int64, error)
	// CreateTemp создаёт уникальный временный файл в корне root.
	// Вызывающий код обязан закрыть файл и удалить его при ошибке.
	CreateTemp(root string) (*os.File, error)
	// Promote переименовывает временный файл в постоянное имя name,
	// подбирая суффикс " (n)" при коллизиях. taken — дополнительная
	// проверка занятости имени (например, в хранилище метаданных).
	// Возвращает итоговый локатор и итоговое имя.
	Promote(tempLocator, root, name string, taken func(name string) bool) (string, string, error)
	// Remove удаляет файл по локатору. nil если файла уже нет.
	Remove(locator string) error
}
