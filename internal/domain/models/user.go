package models

import "time"

// User представляет зарегистрированного покупателя
type User struct {
	ID        int64
	Name      string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// PublicUser - данные пользователя без хэша пароля, то что отдаём после логина
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public отбрасывает хэш пароля
func (u *User) Public() *PublicUser {
	return &PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
