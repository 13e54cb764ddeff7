package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/lego-store/internal/domain/models"
)

// DefaultTTL - время жизни сессии по умолчанию
const DefaultTTL = 24 * time.Hour

var ErrNotFound = errors.New("session not found")

// Session - данные вошедшего пользователя, хранятся на сервере по случайному id
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Store хранит сессии. Get возвращает ErrNotFound для неизвестной или истёкшей сессии.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// New создаёт сессию для пользователя с новым id
func New(user *models.PublicUser) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: time.Now(),
	}
}
