package session

import (
	"errors"
	"log/slog"
	"net/http"
)

// AuthedHandlerFunc - обработчик, которому нужна сессия вошедшего пользователя
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, s *Session)

// Resolver отдаёт сессию текущего запроса, его реализует Manager
type Resolver interface {
	Current(r *http.Request) (*Session, error)
}

// RequireAuth возвращает адаптер: обработчик вызывается только с действующей сессией,
// иначе перенаправление на /login (303)
func RequireAuth(resolver Resolver, log *slog.Logger) func(AuthedHandlerFunc) http.HandlerFunc {
	return func(next AuthedHandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s, err := resolver.Current(r)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					log.Error("failed to load session", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next(w, r, s)
		}
	}
}
