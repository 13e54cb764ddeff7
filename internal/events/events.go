package events

import (
	"context"
	"time"

	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/shopspring/decimal"
)

const TopicOrderPlaced = "orders.placed"

// OrderPlaced публикуется после успешного оформления заказа
type OrderPlaced struct {
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Lines     []OrderLine     `json:"lines"`
}

type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Publisher отправляет доменные события во внешний брокер.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
	Close() error
}

// NewOrderPlaced собирает событие из оформленного заказа
func NewOrderPlaced(order *models.Order) OrderPlaced {
	event := OrderPlaced{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
		Lines:     make([]OrderLine, 0, len(order.Lines)),
	}
	for _, l := range order.Lines {
		event.Lines = append(event.Lines, OrderLine{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return event
}

// NopPublisher используется, когда брокеры не настроены
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (NopPublisher) Close() error { return nil }
