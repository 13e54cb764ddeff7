package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/lego-store/internal/domain/models"
)

// ProductStorage описывает методы для работы с каталогом товаров.
type ProductStorage interface {
	// ListProducts возвращает все товары, новые первыми.
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// GetProductByID возвращает товар по идентификатору.
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// DecrementStock списывает остаток в рамках транзакции оформления заказа.
	DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, name, description, price, stock, image_url, created_at
		FROM products
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p := &models.Product{}
	query := "SELECT id, name, description, price, stock, image_url, created_at FROM products WHERE id = $1"
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// DecrementStock уменьшает остаток только если его хватает, иначе ErrInsufficientStock.
// Остаток не уходит в минус даже если проверка в сервисе что-то пропустила
func (r *productRepository) DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, "UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1", quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	return checkAffected(res, ErrInsufficientStock)
}
