package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/shopspring/decimal"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ в таблицу orders с использованием транзакции.
	CreateOrder(ctx context.Context, tx *sql.Tx, userID int64, total decimal.Decimal) (*models.Order, error)
	// CreateOrderLine записывает строку заказа с ценой на момент покупки.
	CreateOrderLine(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error
	// GetOrdersByUserID возвращает заказы пользователя без строк, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetOrderForUser возвращает заказ со строками, только если он принадлежит пользователю.
	GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
}

// orderRepository - конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

// CreateOrder вставляет новый заказ в таблицу orders.
func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64, total decimal.Decimal) (*models.Order, error) {
	order := &models.Order{UserID: userID, Total: total}
	query := "INSERT INTO orders (user_id, total) VALUES ($1, $2) RETURNING id, created_at"
	if err := tx.QueryRowContext(ctx, query, userID, total).Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) CreateOrderLine(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	query := "INSERT INTO order_lines (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)"
	if _, err := tx.ExecContext(ctx, query, orderID, productID, quantity, unitPrice); err != nil {
		return fmt.Errorf("failed to create order line: %w", err)
	}
	return nil
}

// GetOrdersByUserID возвращает историю заказов пользователя, JOIN нужен для имени покупателя.
func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT o.id, o.user_id, u.name, o.total, o.created_at
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.CustomerName, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderForUser ищет заказ по id и владельцу. Чужой заказ неотличим от несуществующего
func (r *orderRepository) GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT o.id, o.user_id, u.name, o.total, o.created_at
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE o.id = $1 AND o.user_id = $2`
	row := r.db.QueryRowContext(ctx, query, orderID, userID)
	if err := row.Scan(&order.ID, &order.UserID, &order.CustomerName, &order.Total, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	linesQuery := `
		SELECT ol.id, ol.order_id, ol.product_id, p.name, ol.quantity, ol.unit_price
		FROM order_lines ol
		JOIN products p ON ol.product_id = p.id
		WHERE ol.order_id = $1
		ORDER BY ol.id`
	rows, err := r.db.QueryContext(ctx, linesQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line := &models.OrderLine{}
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}
