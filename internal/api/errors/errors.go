// Пакет errors — конструкторы стандартных HTTP-ответов Media Gate.
// Единый формат тела: {"message": "..."}; для 500 опционально
// добавляется {"stackTrace": "..."} для диагностики.
package errors //nolint:revive // имя пакета совпадает со stdlib, используется с алиасом apierrors

import (
	"encoding/json"
	"net/http"
)

// messageBody — структура тела ответа с сообщением.
type messageBody struct {
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace,omitempty"`
}

// writeJSON сериализует тело ответа с указанным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// BadRequest — 400, некорректные входные данные.
func BadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, messageBody{Message: message})
}

// NotFound — 404, ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, messageBody{Message: message})
}

// Unauthorized — 401, отсутствует или истёк токен сессии.
func Unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, messageBody{Message: message})
}

// Forbidden — 403, операция запрещена.
func Forbidden(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, messageBody{Message: message})
}

// InsufficientStorage — 507, недостаточно свободного места.
func InsufficientStorage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInsufficientStorage, messageBody{Message: message})
}

// InternalServerError — 500, внутренняя ошибка.
// stackTrace — захваченный стек для диагностики (пустая строка — не включать).
func InternalServerError(w http.ResponseWriter, message string, stackTrace string) {
	writeJSON(w, http.StatusInternalServerError, messageBody{Message: message, StackTrace: stackTrace})
}

// OKRequest — 200 с телом {"message": "..."}.
func OKRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, messageBody{Message: message})
}

// WriteStatus — произвольный статус-код с телом {"message": "..."}.
func WriteStatus(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageBody{Message: message})
}

// WriteJSON — успешный ответ с произвольным JSON-телом.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	writeJSON(w, statusCode, body)
}
