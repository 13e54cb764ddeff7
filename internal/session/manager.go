package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/lego-store/internal/domain/models"
)

// DefaultCookieName - имя cookie сессии по умолчанию
const DefaultCookieName = "lego_session"

type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager связывает cookie браузера с сессией в Store
type Manager struct {
	log        *slog.Logger
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

func NewManager(log *slog.Logger, store Store, opts Options) (*Manager, error) {
	if opts.Secret == "" {
		return nil, errors.New("session secret is not set")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &Manager{
		log:        log,
		store:      store,
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
	}, nil
}

// Start создаёт сессию для пользователя и выставляет подписанную cookie
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, user *models.PublicUser) (*Session, error) {
	const op = "session.Manager.Start"

	s := New(user)
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("%s: save session: %w", op, err)
	}

	token, err := signToken(m.secret, s.ID, m.ttl)
	if err != nil {
		return nil, fmt.Errorf("%s: sign token: %w", op, err)
	}

	http.SetCookie(w, m.cookie(token, int(m.ttl.Seconds())))
	m.log.Info("session started", slog.String("op", op), slog.Int64("userID", s.UserID))
	return s, nil
}

// Current возвращает сессию запроса или ErrNotFound, если cookie нет, она подделана или сессия истекла
func (m *Manager) Current(r *http.Request) (*Session, error) {
	const op = "session.Manager.Current"

	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNotFound
	}

	id, err := parseToken(m.secret, c.Value)
	if err != nil {
		m.log.Debug("rejected session cookie", slog.String("op", op), slog.Any("error", err))
		return nil, ErrNotFound
	}

	s, err := m.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Destroy удаляет сессию из хранилища и стирает cookie. Без сессии просто стирает cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	const op = "session.Manager.Destroy"

	defer http.SetCookie(w, m.cookie("", -1))

	s, err := m.Current(r)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.log.Info("session destroyed", slog.String("op", op), slog.Int64("userID", s.UserID))
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
