package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/storage"
)

// HistoryService определяет интерфейс для просмотра истории покупок.
type HistoryService interface {
	ListOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
}

type historyService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
}

func NewHistoryService(log *slog.Logger, orderRepo storage.OrderStorage) HistoryService {
	return &historyService{
		log:       log,
		orderRepo: orderRepo,
	}
}

// ListOrders возвращает заказы пользователя без строк, новые первыми.
func (s *historyService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.HistoryService.ListOrders"
	s.log.Info("listing orders", slog.String("op", op), slog.Int64("userID", userID))

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

// GetOrder возвращает заказ со строками. Заказ другого пользователя - ErrNotFound,
// чтобы не раскрывать факт его существования
func (s *historyService) GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	const op = "service.HistoryService.GetOrder"

	order, err := s.orderRepo.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Int64("orderID", orderID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	return order, nil
}
