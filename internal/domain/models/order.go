package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order представляет оформленный заказ. Позиции записываются один раз при оформлении и больше не меняются
type Order struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	CustomerName string          `json:"customer_name"` // заполняется через JOIN с таблицей users
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	Lines        []*OrderLine    `json:"lines,omitempty"`
}

// OrderLine - строка заказа с ценой на момент покупки
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"` // через JOIN с products
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// LineTotal - стоимость строки заказа
func (l *OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
