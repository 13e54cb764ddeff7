package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/lego-store/internal/domain/models"
)

// CartStorage описывает методы для работы с корзинами и их позициями.
type CartStorage interface {
	// GetCartID возвращает id корзины пользователя или ErrCartNotFound.
	GetCartID(ctx context.Context, userID int64) (int64, error)
	// GetOrCreateCart возвращает id корзины, создавая её при первом обращении.
	GetOrCreateCart(ctx context.Context, userID int64) (int64, error)
	// AddItem увеличивает количество товара в корзине на 1 или добавляет позицию.
	AddItem(ctx context.Context, cartID, productID int64) error
	// UpdateItemQuantity меняет количество у позиции из корзины пользователя.
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	// DeleteItem удаляет позицию из корзины пользователя.
	DeleteItem(ctx context.Context, userID, itemID int64) error
	// ListItems возвращает позиции корзины с данными товаров.
	ListItems(ctx context.Context, cartID int64) ([]*models.CartItem, error)

	// GetCartIDTx - то же что GetCartID, но в транзакции.
	GetCartIDTx(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	// LockItemsTx читает позиции корзины и блокирует строки товаров до конца транзакции.
	LockItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]*models.CartItem, error)
	// ClearTx удаляет все позиции корзины.
	ClearTx(ctx context.Context, tx *sql.Tx, cartID int64) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт новый репозиторий корзин.
func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const cartItemsQuery = `
		SELECT ci.id, ci.cart_id, ci.quantity, p.id, p.name, p.price, p.image_url, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY p.id`

func (r *cartRepository) GetCartID(ctx context.Context, userID int64) (int64, error) {
	return getCartID(ctx, r.db, userID)
}

func (r *cartRepository) GetCartIDTx(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	return getCartID(ctx, tx, userID)
}

func getCartID(ctx context.Context, q queryer, userID int64) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id = $1", userID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCartNotFound
		}
		return 0, err
	}
	return id, nil
}

func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID int64) (int64, error) {
	id, err := r.GetCartID(ctx, userID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return 0, err
	}

	// при параллельном создании второй запрос получит уже существующую корзину
	query := `INSERT INTO carts (user_id) VALUES ($1)
	          ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	          RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create cart: %w", err)
	}
	return id, nil
}

func (r *cartRepository) AddItem(ctx context.Context, cartID, productID int64) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, 1)
	          ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID); err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	query := `UPDATE cart_items ci SET quantity = $1
	          FROM carts c
	          WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $3`
	res, err := r.db.ExecContext(ctx, query, quantity, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return checkAffected(res, ErrCartItemNotFound)
}

func (r *cartRepository) DeleteItem(ctx context.Context, userID, itemID int64) error {
	query := `DELETE FROM cart_items ci
	          USING carts c
	          WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2`
	res, err := r.db.ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return checkAffected(res, ErrCartItemNotFound)
}

func (r *cartRepository) ListItems(ctx context.Context, cartID int64) ([]*models.CartItem, error) {
	return listItems(ctx, r.db, cartItemsQuery, cartID)
}

func (r *cartRepository) LockItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]*models.CartItem, error) {
	return listItems(ctx, tx, cartItemsQuery+"\n\t\tFOR UPDATE OF p", cartID)
}

func (r *cartRepository) ClearTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func listItems(ctx context.Context, q queryer, query string, cartID int64) ([]*models.CartItem, error) {
	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.Quantity, &item.ProductID, &item.Name, &item.Price, &item.ImageURL, &item.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func checkAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
