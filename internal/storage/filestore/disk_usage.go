// disk_usage.go — получение информации об ёмкости диска.
// Платформозависимый код для Unix-подобных систем.
package filestore

import (
	"fmt"
	"syscall"
)

// FreeSpace возвращает объём доступного дискового пространства
// в корне root в байтах.
func (ds *DiskStore) FreeSpace(root string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(root, &stat); err != nil {
		return 0, fmt.Errorf("ошибка statfs %s: %w", root, err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
