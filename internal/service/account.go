package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost - стоимость bcrypt для хэшей паролей
const PasswordCost = 10

// AccountService определяет интерфейс регистрации и входа.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*models.PublicUser, error)
	Login(ctx context.Context, email, password string) (*models.PublicUser, error)
}

type accountService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
}

func NewAccountService(log *slog.Logger, userRepo storage.UserStorage) AccountService {
	return &accountService{
		log:      log,
		userRepo: userRepo,
	}
}

// Register создаёт пользователя. Если email уже занят - ErrDuplicateEmail, новая строка не создаётся.
// Пароль хэшируется bcrypt, соль bcrypt добавляет сам
func (a *accountService) Register(ctx context.Context, name, email, password string) (*models.PublicUser, error) {
	const op = "service.AccountService.Register"
	email = normalizeEmail(email)
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("registering user")

	_, err := a.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		logger.Warn("email already registered")
		return nil, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to check email", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to check email: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		PassHash: passHash,
	})
	if err != nil {
		// параллельная регистрация с тем же email упирается в уникальный индекс
		if errors.Is(err, storage.ErrEmailTaken) {
			logger.Warn("email already registered")
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return user.Public(), nil
}

// Login проверяет email и пароль.
// Неизвестный email и неверный пароль дают одну и ту же ErrInvalidCredentials
func (a *accountService) Login(ctx context.Context, email, password string) (*models.PublicUser, error) {
	const op = "service.AccountService.Login"
	email = normalizeEmail(email)
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("invalid credentials")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid credentials")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return user.Public(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
