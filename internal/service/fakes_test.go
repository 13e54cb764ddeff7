package service_test

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/events"
	"github.com/linemk/lego-store/internal/storage"
	"github.com/shopspring/decimal"
)

type fakeUserRepo struct {
	users map[string]*models.User // ключ - email
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, storage.ErrEmailTaken
	}
	user.ID = int64(len(f.users) + 1)
	user.CreatedAt = time.Now()
	f.users[user.Email] = user
	return user, nil
}

type fakeProductRepo struct {
	products map[int64]*models.Product
	decErr   error
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*models.Product)}
}

func (f *fakeProductRepo) add(id int64, name, price string, stock int) {
	f.products[id] = &models.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		CreatedAt: time.Now().Add(time.Duration(id) * time.Minute),
	}
}

func (f *fakeProductRepo) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	for _, p := range f.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	if f.decErr != nil {
		return f.decErr
	}
	p, ok := f.products[productID]
	if !ok || p.Stock < quantity {
		return storage.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

type fakeCartItem struct {
	id        int64
	productID int64
	quantity  int
}

type fakeCartRepo struct {
	products *fakeProductRepo
	carts    map[int64]int64 // userID -> cartID
	items    map[int64][]*fakeCartItem
	nextItem int64
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo(products *fakeProductRepo) *fakeCartRepo {
	return &fakeCartRepo{
		products: products,
		carts:    make(map[int64]int64),
		items:    make(map[int64][]*fakeCartItem),
	}
}

func (f *fakeCartRepo) GetCartID(ctx context.Context, userID int64) (int64, error) {
	id, ok := f.carts[userID]
	if !ok {
		return 0, storage.ErrCartNotFound
	}
	return id, nil
}

func (f *fakeCartRepo) GetOrCreateCart(ctx context.Context, userID int64) (int64, error) {
	if id, ok := f.carts[userID]; ok {
		return id, nil
	}
	id := int64(len(f.carts) + 1)
	f.carts[userID] = id
	return id, nil
}

func (f *fakeCartRepo) AddItem(ctx context.Context, cartID, productID int64) error {
	if _, ok := f.products.products[productID]; !ok {
		return storage.ErrProductNotFound
	}
	for _, it := range f.items[cartID] {
		if it.productID == productID {
			it.quantity++
			return nil
		}
	}
	f.nextItem++
	f.items[cartID] = append(f.items[cartID], &fakeCartItem{id: f.nextItem, productID: productID, quantity: 1})
	return nil
}

func (f *fakeCartRepo) find(userID, itemID int64) (int64, int, bool) {
	cartID, ok := f.carts[userID]
	if !ok {
		return 0, 0, false
	}
	for i, it := range f.items[cartID] {
		if it.id == itemID {
			return cartID, i, true
		}
	}
	return 0, 0, false
}

func (f *fakeCartRepo) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	cartID, i, ok := f.find(userID, itemID)
	if !ok {
		return storage.ErrCartItemNotFound
	}
	f.items[cartID][i].quantity = quantity
	return nil
}

func (f *fakeCartRepo) DeleteItem(ctx context.Context, userID, itemID int64) error {
	cartID, i, ok := f.find(userID, itemID)
	if !ok {
		return storage.ErrCartItemNotFound
	}
	f.items[cartID] = append(f.items[cartID][:i], f.items[cartID][i+1:]...)
	return nil
}

func (f *fakeCartRepo) ListItems(ctx context.Context, cartID int64) ([]*models.CartItem, error) {
	var items []*models.CartItem
	for _, it := range f.items[cartID] {
		p := f.products.products[it.productID]
		items = append(items, &models.CartItem{
			ID:        it.id,
			CartID:    cartID,
			ProductID: it.productID,
			Quantity:  it.quantity,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Stock:     p.Stock,
		})
	}
	return items, nil
}

func (f *fakeCartRepo) GetCartIDTx(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	return f.GetCartID(ctx, userID)
}

func (f *fakeCartRepo) LockItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]*models.CartItem, error) {
	return f.ListItems(ctx, cartID)
}

func (f *fakeCartRepo) ClearTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	delete(f.items, cartID)
	return nil
}

type fakeOrderRepo struct {
	orders map[int64]*models.Order
	nextID int64
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order)}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64, total decimal.Decimal) (*models.Order, error) {
	f.nextID++
	order := &models.Order{ID: f.nextID, UserID: userID, Total: total, CreatedAt: time.Now()}
	f.orders[order.ID] = order
	return &models.Order{ID: order.ID, UserID: userID, Total: total, CreatedAt: order.CreatedAt}, nil
}

func (f *fakeOrderRepo) CreateOrderLine(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	order := f.orders[orderID]
	order.Lines = append(order.Lines, &models.OrderLine{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	var orders []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			orders = append(orders, &models.Order{ID: o.ID, UserID: o.UserID, Total: o.Total, CreatedAt: o.CreatedAt})
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (f *fakeOrderRepo) GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, storage.ErrOrderNotFound
	}
	return o, nil
}

type fakePublisher struct {
	events []events.OrderPlaced
	err    error
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, event events.OrderPlaced) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
