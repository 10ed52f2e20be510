// Пакет auth — in-memory реестр токенов сессий с TTL и фоновой очисткой.
// Сессии не переживают рестарт процесса: потеря реестра приводит
// к повторному логину, что приемлемо.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/mediagate/internal/api/middleware"
)

// Длина токена в байтах до base64-кодирования.
const tokenBytes = 32

// Session — одна активная сессия пользователя.
type Session struct {
	// Token — непрозрачный случайный токен.
	Token string
	// UserID — владелец сессии.
	UserID int64
	// CreatedAt — время создания.
	CreatedAt time.Time
	// ExpiresAt — абсолютное время истечения.
	ExpiresAt time.Time
}

// Store — потокобезопасный реестр сессий.
// Запросные worker'ы читают и пишут карту конкурентно с фоновой очисткой.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl           time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
	cancel        context.CancelFunc

	// now — источник времени, подменяется в тестах.
	now func() time.Time
}

// NewStore создаёт реестр сессий.
// ttl — абсолютное время жизни сессии от создания;
// sweepInterval — период фоновой очистки истёкших записей.
func NewStore(ttl, sweepInterval time.Duration, logger *slog.Logger) *Store {
	return &Store{
		sessions:      make(map[string]*Session),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		logger:        logger.With(slog.String("component", "session_store")),
		now:           time.Now,
	}
}

// Create создаёт сессию для пользователя и возвращает токен.
func (s *Store) Create(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var token string
	for {
		token = newToken()
		if _, exists := s.sessions[token]; !exists {
			break
		}
		// Коллизия 256-битного токена практически невозможна,
		// но карта обязана оставаться согласованной.
	}

	created := s.now()
	s.sessions[token] = &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: created,
		ExpiresAt: created.Add(s.ttl),
	}
	middleware.SessionsActive.Set(float64(len(s.sessions)))

	s.logger.Debug("Сессия создана", slog.Int64("user_id", userID))
	return token
}

// Validate возвращает владельца токена.
// Истёкшая сессия удаляется, возвращается false.
func (s *Store) Validate(token string) (int64, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return 0, false
	}
	if s.now().After(sess.ExpiresAt) {
		s.evict(token)
		return 0, false
	}
	return sess.UserID, true
}

// Extend продлевает сессию на полный TTL от текущего момента.
// Истёкшая сессия удаляется, возвращается false.
func (s *Store) Extend(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return false
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		middleware.SessionsActive.Set(float64(len(s.sessions)))
		return false
	}
	sess.ExpiresAt = s.now().Add(s.ttl)
	return true
}

// Invalidate удаляет сессию (logout). Неизвестный токен — не ошибка.
func (s *Store) Invalidate(token string) {
	s.evict(token)
}

// Len возвращает текущее количество сессий (включая ещё не выметенные истёкшие).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start запускает фоновую горутину очистки истёкших сессий.
func (s *Store) Start(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.run(sweepCtx)

	s.logger.Info("Очистка сессий запущена",
		slog.String("interval", s.sweepInterval.String()),
		slog.String("ttl", s.ttl.String()),
	)
}

// Stop останавливает фоновую очистку.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Очистка сессий остановлена")
}

// run — основной цикл фоновой горутины.
func (s *Store) run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if removed > 0 {
				s.logger.Debug("Истёкшие сессии удалены", slog.Int("count", removed))
			}
		}
	}
}

// Sweep удаляет все истёкшие сессии независимо от того,
// обращались ли к ним. Возвращает количество удалённых.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		middleware.SessionsActive.Set(float64(len(s.sessions)))
	}
	return removed
}

// evict удаляет одну сессию под полной блокировкой.
func (s *Store) evict(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; ok {
		delete(s.sessions, token)
		middleware.SessionsActive.Set(float64(len(s.sessions)))
	}
}

// newToken генерирует криптографически случайный URL-safe токен.
func newToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибок;
		// если источник энтропии недоступен, продолжать небезопасно.
		panic("auth: источник случайности недоступен: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
