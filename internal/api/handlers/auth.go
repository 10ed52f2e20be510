package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/api/middleware"
	"github.com/bigkaa/mediagate/internal/auth"
	"github.com/bigkaa/mediagate/internal/repository"
)

// AuthHandler — обработчик входа и выхода.
type AuthHandler struct {
	users    repository.UserRepository
	sessions *auth.Store
	logger   *slog.Logger
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(users repository.UserRepository, sessions *auth.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "auth_handler")),
	}
}

// loginRequest — тело запроса входа.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login обрабатывает POST /server/login.
// Неизвестное имя и неверный пароль дают одинаковый ответ,
// чтобы не раскрывать существование учётной записи.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Malformed request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		apierrors.BadRequest(w, "Username and password required")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.Unauthorized(w, "Invalid credentials")
			return
		}
		h.logger.Error("Ошибка поиска пользователя",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Login failed", "")
		return
	}

	password := req.Password
	if user.Salt != nil {
		password += *user.Salt
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		h.logger.Warn("Неуспешная попытка входа", slog.String("username", req.Username))
		apierrors.Unauthorized(w, "Invalid credentials")
		return
	}

	if user.Disabled {
		apierrors.Forbidden(w, "Account is disabled")
		return
	}

	token := h.sessions.Create(user.ID)
	h.logger.Info("Пользователь вошёл в систему",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	apierrors.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout обрабатывает POST /server/logout.
// Неизвестный или уже истёкший токен не считается ошибкой.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(middleware.SessionHeader)
	if token != "" {
		h.sessions.Invalidate(token)
	}
	apierrors.OKRequest(w, "Logged out")
}
