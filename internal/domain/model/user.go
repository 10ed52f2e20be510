package model

// User — учётная запись для входа в Media Gate.
// Записи принадлежат хранилищу метаданных; ядро читает их при логине.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	// Salt — соль пароля (опционально, для устаревших записей).
	Salt *string
	// Disabled — заблокированная учётная запись, вход запрещён.
	Disabled bool
}
