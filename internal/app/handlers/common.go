package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/service"
	"github.com/linemk/lego-store/internal/session"
)

var validate = validator.New()

// Sessions - то, что обработчикам нужно от менеджера сессий
type Sessions interface {
	Start(ctx context.Context, w http.ResponseWriter, user *models.PublicUser) (*session.Session, error)
	Current(r *http.Request) (*session.Session, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// currentUser возвращает сессию для публичных страниц; отсутствие сессии не ошибка
func currentUser(log *slog.Logger, sessions Sessions, r *http.Request) *session.Session {
	s, err := sessions.Current(r)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Error("failed to load session", slog.Any("error", err))
		}
		return nil
	}
	return s
}

// parseID разбирает положительный идентификатор; при ошибке возвращает 0
func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// statusFor сопоставляет ошибку сервиса с HTTP-статусом и сообщением для пользователя
func statusFor(err error) (int, string) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return http.StatusConflict, "Not enough stock for " + stockErr.Name + ": requested " +
			strconv.Itoa(stockErr.Requested) + ", available " + strconv.Itoa(stockErr.Available)
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict, "Not enough stock for one of the products"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "Your cart is empty"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrDuplicateEmail):
		return http.StatusConflict, "This email is already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again later"
	}
}
