package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/storage"
)

// CartService определяет операции с корзиной пользователя.
type CartService interface {
	GetOrCreateCart(ctx context.Context, userID int64) (int64, error)
	AddItem(ctx context.Context, userID, productID int64) error
	UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
}

type cartService struct {
	log      *slog.Logger
	cartRepo storage.CartStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage) CartService {
	return &cartService{
		log:      log,
		cartRepo: cartRepo,
	}
}

// GetOrCreateCart идемпотентна: повторный вызов возвращает ту же корзину
func (s *cartService) GetOrCreateCart(ctx context.Context, userID int64) (int64, error) {
	const op = "service.CartService.GetOrCreateCart"

	cartID, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		s.log.Error("failed to get or create cart", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return cartID, nil
}

// AddItem добавляет одну единицу товара. Остаток здесь не проверяется, только при оформлении
func (s *cartService) AddItem(ctx context.Context, userID, productID int64) error {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	cartID, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.cartRepo.AddItem(ctx, cartID, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to add item", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("item added to cart")
	return nil
}

// UpdateQuantity выставляет количество; ноль и меньше удаляют позицию
func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	const op = "service.CartService.UpdateQuantity"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("itemID", itemID), slog.Int("quantity", quantity))

	var err error
	if quantity <= 0 {
		err = s.cartRepo.DeleteItem(ctx, userID, itemID)
	} else {
		err = s.cartRepo.UpdateItemQuantity(ctx, userID, itemID, quantity)
	}
	if err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			logger.Warn("cart item not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to update cart item", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	const op = "service.CartService.RemoveItem"

	if err := s.cartRepo.DeleteItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		s.log.Error("failed to remove cart item", slog.String("op", op), slog.Int64("itemID", itemID), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetCart возвращает корзину с товарами; итог считает вызывающий через Cart.Total
func (s *cartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.GetCart"

	cartID, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.cartRepo.ListItems(ctx, cartID)
	if err != nil {
		s.log.Error("failed to list cart items", slog.String("op", op), slog.Int64("cartID", cartID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Cart{ID: cartID, UserID: userID, Items: items}, nil
}
