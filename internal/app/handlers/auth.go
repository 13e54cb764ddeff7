package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/linemk/lego-store/internal/service"
)

// LoginForm - поля формы входа с тегами валидации
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterForm - поля формы регистрации с тегами валидации
type RegisterForm struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
}

// LoginPageHandler показывает форму входа; вошедшего пользователя отправляет на главную
func LoginPageHandler(log *slog.Logger, views *Views, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.LoginPageHandler"))
		if currentUser(logger, sessions, r) != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		views.render(w, logger, http.StatusOK, "login.html", Page{Title: "Login"})
	}
}

// LoginHandler проверяет учётные данные и начинает сессию
func LoginHandler(log *slog.Logger, views *Views, accounts service.AccountService, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		if currentUser(logger, sessions, r) != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			views.render(w, logger, http.StatusBadRequest, "login.html", Page{Title: "Login", Error: "Invalid request"})
			return
		}
		form := LoginForm{
			Email:    strings.TrimSpace(r.PostForm.Get("email")),
			Password: r.PostForm.Get("password"),
		}

		// Валидация формы с использованием validator
		if err := validate.Struct(form); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			views.render(w, logger, http.StatusUnprocessableEntity, "login.html",
				Page{Title: "Login", Error: "Enter a valid email and password", Data: form.Email})
			return
		}

		user, err := accounts.Login(r.Context(), form.Email, form.Password)
		if err != nil {
			status, msg := statusFor(err)
			if !errors.Is(err, service.ErrInvalidCredentials) {
				logger.Error("login failed", slog.Any("error", err))
			}
			views.render(w, logger, status, "login.html", Page{Title: "Login", Error: msg, Data: form.Email})
			return
		}

		if _, err := sessions.Start(r.Context(), w, user); err != nil {
			logger.Error("failed to start session", slog.Any("error", err))
			views.render(w, logger, http.StatusInternalServerError, "login.html",
				Page{Title: "Login", Error: "Could not log in, please try again", Data: form.Email})
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// RegisterPageHandler показывает форму регистрации; вошедшего пользователя отправляет на главную
func RegisterPageHandler(log *slog.Logger, views *Views, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.RegisterPageHandler"))
		if currentUser(logger, sessions, r) != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		views.render(w, logger, http.StatusOK, "register.html", Page{Title: "Register"})
	}
}

// RegisterHandler создаёт аккаунт и отправляет на страницу входа
func RegisterHandler(log *slog.Logger, views *Views, accounts service.AccountService, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		if currentUser(logger, sessions, r) != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			views.render(w, logger, http.StatusBadRequest, "register.html", Page{Title: "Register", Error: "Invalid request"})
			return
		}
		form := RegisterForm{
			Name:     strings.TrimSpace(r.PostForm.Get("name")),
			Email:    strings.TrimSpace(r.PostForm.Get("email")),
			Password: r.PostForm.Get("password"),
		}
		// пароль в форму обратно не возвращаем
		echo := RegisterForm{Name: form.Name, Email: form.Email}

		if err := validate.Struct(form); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			views.render(w, logger, http.StatusUnprocessableEntity, "register.html",
				Page{Title: "Register", Error: "Name, a valid email and a password of at least 6 characters are required", Data: echo})
			return
		}

		if _, err := accounts.Register(r.Context(), form.Name, form.Email, form.Password); err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("registration failed", slog.Any("error", err))
			}
			views.render(w, logger, status, "register.html", Page{Title: "Register", Error: msg, Data: echo})
			return
		}

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// LogoutHandler завершает сессию и отправляет на главную
func LogoutHandler(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Destroy(r.Context(), w, r); err != nil {
			log.Error("failed to destroy session", slog.String("op", "handlers.LogoutHandler"), slog.Any("error", err))
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
