package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "name", "email", "pass_hash", "created_at"}

func TestGetUserByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	userID := int64(1)
	now := time.Now()

	rows := sqlmock.NewRows(userColumns).
		AddRow(userID, "Ana", "ana@example.com", []byte("hashed-password"), now)
	mock.ExpectQuery("SELECT id, name, email, pass_hash, created_at FROM users WHERE id = \\$1").
		WithArgs(userID).WillReturnRows(rows)

	user, err := repo.GetUserByID(context.Background(), userID)
	assert.NoError(t, err, "Expected no error when user is found")
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, []byte("hashed-password"), user.PassHash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	mock.ExpectQuery("SELECT id, name, email, pass_hash, created_at FROM users WHERE id = \\$1").
		WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.GetUserByID(context.Background(), 2)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user, "User should be nil when not found")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	mock.ExpectQuery("SELECT id, name, email, pass_hash, created_at FROM users WHERE id = \\$1").
		WithArgs(int64(3)).WillReturnError(errors.New("db error"))

	user, err := repo.GetUserByID(context.Background(), 3)
	assert.Error(t, err, "Expected error when query fails")
	assert.NotErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	email := "test@example.com"

	rows := sqlmock.NewRows(userColumns).AddRow(1, "Test", email, []byte("hashed-password"), time.Now())
	query := regexp.QuoteMeta("SELECT id, name, email, pass_hash, created_at FROM users WHERE email = $1")
	mock.ExpectQuery(query).WithArgs(email).WillReturnRows(rows)

	user, err := repo.GetUserByEmail(context.Background(), email)
	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, email, user.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	email := "nonexistent@example.com"

	query := regexp.QuoteMeta("SELECT id, name, email, pass_hash, created_at FROM users WHERE email = $1")
	mock.ExpectQuery(query).WithArgs(email).WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.GetUserByEmail(context.Background(), email)
	assert.Nil(t, user)
	assert.True(t, errors.Is(err, storage.ErrUserNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	passHash := []byte("hashed")
	now := time.Now()

	query := regexp.QuoteMeta("INSERT INTO users (name, email, pass_hash) VALUES ($1, $2, $3) RETURNING id, created_at")
	mock.ExpectQuery(query).WithArgs("Create", "create@example.com", passHash).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

	created, err := repo.CreateUser(context.Background(), &models.User{
		Name:     "Create",
		Email:    "create@example.com",
		PassHash: passHash,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, now, created.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	query := regexp.QuoteMeta("INSERT INTO users (name, email, pass_hash) VALUES ($1, $2, $3) RETURNING id, created_at")
	mock.ExpectQuery(query).WithArgs("Dup", "dup@example.com", []byte("hashed")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	created, err := repo.CreateUser(context.Background(), &models.User{Name: "Dup", Email: "dup@example.com", PassHash: []byte("hashed")})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
	assert.Nil(t, created)

	assert.NoError(t, mock.ExpectationsWereMet())
}

var productColumns = []string{"id", "name", "description", "price", "stock", "image_url", "created_at"}

func TestListProducts_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(productColumns).
		AddRow(2, "Millennium Falcon", "75192", "849.99", 3, "/img/falcon.jpg", now).
		AddRow(1, "Hogwarts Castle", "71043", "469.99", 0, "/img/hogwarts.jpg", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM products ORDER BY created_at DESC, id DESC")).WillReturnRows(rows)

	products, err := repo.ListProducts(context.Background())
	assert.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Millennium Falcon", products[0].Name)
	assert.True(t, decimal.RequireFromString("849.99").Equal(products[0].Price))
	assert.Equal(t, 3, products[0].Stock)
	assert.False(t, products[1].InStock())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	query := regexp.QuoteMeta("SELECT id, name, description, price, stock, image_url, created_at FROM products WHERE id = $1")
	mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnRows(sqlmock.NewRows(productColumns))

	product, err := repo.GetProductByID(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)
	assert.Nil(t, product)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)

	mock.ExpectBegin()
	query := regexp.QuoteMeta("UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1")
	mock.ExpectExec(query).WithArgs(2, int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	assert.NoError(t, repo.DecrementStock(context.Background(), tx, 5, 2))
	assert.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_NotEnough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)

	mock.ExpectBegin()
	query := regexp.QuoteMeta("UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1")
	mock.ExpectExec(query).WithArgs(10, int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.DecrementStock(context.Background(), tx, 5, 10)
	assert.ErrorIs(t, err, storage.ErrInsufficientStock)
	assert.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateCart_Existing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = $1")).
		WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	cartID, err := repo.GetOrCreateCart(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), cartID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateCart_Creates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = $1")).
		WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id)")).
		WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	cartID, err := repo.GetOrCreateCart(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(11), cartID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	query := regexp.QuoteMeta("ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1")
	mock.ExpectExec(query).WithArgs(int64(10), int64(3)).WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.AddItem(context.Background(), 10, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_UnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_items (cart_id, product_id, quantity)")).
		WithArgs(int64(10), int64(999)).
		WillReturnError(&pq.Error{Code: "23503"})

	err = repo.AddItem(context.Background(), 10, 999)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemQuantity_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items ci SET quantity = $1 FROM carts c")).
		WithArgs(4, int64(20), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateItemQuantity(context.Background(), 1, 20, 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemQuantity_ForeignCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	// позиция принадлежит корзине другого пользователя, ни одна строка не обновится
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items ci SET quantity = $1 FROM carts c")).
		WithArgs(4, int64(20), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateItemQuantity(context.Background(), 2, 20, 4)
	assert.ErrorIs(t, err, storage.ErrCartItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItem_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items ci USING carts c")).
		WithArgs(int64(20), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteItem(context.Background(), 1, 20))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var cartItemColumns = []string{"id", "cart_id", "quantity", "product_id", "name", "price", "image_url", "stock"}

func TestListItems_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	rows := sqlmock.NewRows(cartItemColumns).
		AddRow(1, 10, 2, 100, "Product A", "10.00", "/a.jpg", 5).
		AddRow(2, 10, 1, 200, "Product B", "5.00", "/b.jpg", 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci JOIN products p ON ci.product_id = p.id WHERE ci.cart_id = $1")).
		WithArgs(int64(10)).WillReturnRows(rows)

	items, err := repo.ListItems(context.Background(), 10)
	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(100), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	cart := &models.Cart{ID: 10, Items: items}
	assert.True(t, decimal.NewFromInt(25).Equal(cart.Total()), "cart total should be 25")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockItemsTx_LocksProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.id FOR UPDATE OF p")).
		WithArgs(int64(10)).WillReturnRows(sqlmock.NewRows(cartItemColumns).AddRow(1, 10, 2, 100, "Product A", "10.00", "/a.jpg", 5))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	items, err := repo.LockItemsTx(context.Background(), tx, 10)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE cart_id = $1")).
		WithArgs(int64(10)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	assert.NoError(t, repo.ClearTx(context.Background(), tx, 10))
	assert.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	total := decimal.NewFromInt(25)
	now := time.Now()

	mock.ExpectBegin()
	query := regexp.QuoteMeta("INSERT INTO orders (user_id, total) VALUES ($1, $2) RETURNING id, created_at")
	mock.ExpectQuery(query).WithArgs(int64(1), total).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(77, now))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	order, err := repo.CreateOrder(context.Background(), tx, 1, total)
	assert.NoError(t, err)
	assert.Equal(t, int64(77), order.ID)
	assert.Equal(t, now, order.CreatedAt)
	assert.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderLine_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	price := decimal.RequireFromString("10.00")

	mock.ExpectBegin()
	query := regexp.QuoteMeta("INSERT INTO order_lines (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)")
	mock.ExpectExec(query).WithArgs(int64(77), int64(100), 2, price).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	assert.NoError(t, repo.CreateOrderLine(context.Background(), tx, 77, 100, 2, price))
	assert.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "total", "created_at"}).
		AddRow(2, 1, "Ana", "25.00", now).
		AddRow(1, 1, "Ana", "5.00", now.Add(-time.Hour))
	query := `
		SELECT o\.id, o\.user_id, u\.name, o\.total, o\.created_at
		FROM orders o
		JOIN users u ON o\.user_id = u\.id
		WHERE o\.user_id = \$1
		ORDER BY o\.created_at DESC, o\.id DESC`
	mock.ExpectQuery(query).WithArgs(int64(1)).WillReturnRows(rows)

	orders, err := repo.GetOrdersByUserID(context.Background(), 1)
	assert.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].ID)
	assert.Equal(t, "Ana", orders[0].CustomerName)
	assert.True(t, decimal.NewFromInt(25).Equal(orders[0].Total))
	assert.Empty(t, orders[0].Lines, "history must not load lines")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	expectedErr := errors.New("query error")
	mock.ExpectQuery("FROM orders o").WithArgs(int64(1)).WillReturnError(expectedErr)

	orders, err := repo.GetOrdersByUserID(context.Background(), 1)
	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, orders)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderForUser_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1 AND o.user_id = $2")).
		WithArgs(int64(77), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "total", "created_at"}).AddRow(77, 1, "Ana", "25.00", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_lines ol JOIN products p ON ol.product_id = p.id WHERE ol.order_id = $1")).
		WithArgs(int64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "quantity", "unit_price"}).
			AddRow(1, 77, 100, "Product A", 2, "10.00").
			AddRow(2, 77, 200, "Product B", 1, "5.00"))

	order, err := repo.GetOrderForUser(context.Background(), 77, 1)
	assert.NoError(t, err)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "Product A", order.Lines[0].ProductName)
	assert.True(t, decimal.NewFromInt(20).Equal(order.Lines[0].LineTotal()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderForUser_OtherUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1 AND o.user_id = $2")).
		WithArgs(int64(77), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "total", "created_at"}))

	order, err := repo.GetOrderForUser(context.Background(), 77, 2)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}
