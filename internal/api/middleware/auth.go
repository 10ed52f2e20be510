// auth.go — middleware проверки токена сессии для операций записи.
package middleware

import (
	"context"
	"net/http"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
)

// SessionHeader — HTTP-заголовок с токеном сессии.
const SessionHeader = "X-Session-Token"

// contextKey — приватный тип ключей контекста пакета.
type contextKey string

// userIDKey — ключ контекста с идентификатором пользователя.
const userIDKey contextKey = "user_id"

// SessionValidator — проверка токена сессии.
// Реализуется auth.Store.
type SessionValidator interface {
	// Validate возвращает идентификатор владельца токена.
	// false — токен неизвестен или истёк.
	Validate(token string) (int64, bool)
}

// RequireSession возвращает middleware, пропускающий запрос только
// с действительным токеном сессии в заголовке X-Session-Token.
// При enabled=false middleware прозрачен (dev-режим без аутентификации).
func RequireSession(sessions SessionValidator, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(SessionHeader)
			if token == "" {
				apierrors.Unauthorized(w, "Session token required")
				return
			}

			userID, ok := sessions.Validate(token)
			if !ok {
				apierrors.Unauthorized(w, "Session expired or invalid")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext возвращает идентификатор пользователя из контекста запроса.
// 0 — запрос не проходил через RequireSession.
func UserIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}
