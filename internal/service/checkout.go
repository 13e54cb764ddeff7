package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/events"
	"github.com/linemk/lego-store/internal/storage"
	"github.com/shopspring/decimal"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64) (*models.Order, error)
}

type checkoutService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	publisher   events.Publisher
}

func NewCheckoutService(
	log *slog.Logger,
	db *sql.DB,
	cartRepo storage.CartStorage,
	productRepo storage.ProductStorage,
	orderRepo storage.OrderStorage,
	publisher events.Publisher,
) CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &checkoutService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		publisher:   publisher,
	}
}

// Checkout превращает корзину пользователя в заказ одной транзакцией:
// проверка остатков, заказ, строки заказа, списание остатков, очистка корзины.
// При любой ошибке транзакция откатывается, ошибка помечается ErrTransactionFailure
func (s *checkoutService) Checkout(ctx context.Context, userID int64) (*models.Order, error) {
	const op = "service.CheckoutService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w: %w", op, ErrTransactionFailure, err)
	}

	order, err := s.checkoutTx(ctx, tx, logger, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransactionFailure, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w: %w", op, ErrTransactionFailure, err)
	}

	logger.Info("checkout completed successfully", slog.Int64("orderID", order.ID), slog.String("total", order.Total.StringFixed(2)))

	// заказ уже зафиксирован, ошибка брокера на результат не влияет
	if err := s.publisher.PublishOrderPlaced(ctx, events.NewOrderPlaced(order)); err != nil {
		logger.Error("failed to publish order placed event", slog.Int64("orderID", order.ID), slog.Any("error", err))
	}

	return order, nil
}

func (s *checkoutService) checkoutTx(ctx context.Context, tx *sql.Tx, logger *slog.Logger, userID int64) (*models.Order, error) {
	// Корзину читаем внутри транзакции, строки товаров блокируются до коммита
	cartID, err := s.cartRepo.GetCartIDTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			logger.Warn("cart not found")
			return nil, ErrEmptyCart
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items, err := s.cartRepo.LockItemsTx(ctx, tx, cartID)
	if err != nil {
		logger.Error("failed to load cart items", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	if len(items) == 0 {
		logger.Warn("cart is empty")
		return nil, ErrEmptyCart
	}

	// Проверяем остатки по прочитанному снимку
	for _, item := range items {
		if item.Quantity > item.Stock {
			logger.Warn("insufficient stock",
				slog.Int64("productID", item.ProductID),
				slog.Int("requested", item.Quantity),
				slog.Int("available", item.Stock),
			)
			return nil, &InsufficientStockError{ProductID: item.ProductID, Name: item.Name, Requested: item.Quantity, Available: item.Stock}
		}
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	order, err := s.orderRepo.CreateOrder(ctx, tx, userID, total)
	if err != nil {
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range items {
		if err := s.orderRepo.CreateOrderLine(ctx, tx, order.ID, item.ProductID, item.Quantity, item.Price); err != nil {
			logger.Error("failed to create order line", slog.Int64("productID", item.ProductID), slog.Any("error", err))
			return nil, fmt.Errorf("failed to create order line: %w", err)
		}

		if err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, storage.ErrInsufficientStock) {
				logger.Warn("stock changed during checkout", slog.Int64("productID", item.ProductID))
				return nil, &InsufficientStockError{ProductID: item.ProductID, Name: item.Name, Requested: item.Quantity, Available: item.Stock}
			}
			logger.Error("failed to decrement stock", slog.Int64("productID", item.ProductID), slog.Any("error", err))
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}

		order.Lines = append(order.Lines, &models.OrderLine{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
		})
	}

	if err := s.cartRepo.ClearTx(ctx, tx, cartID); err != nil {
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	return order, nil
}
