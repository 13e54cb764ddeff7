package models

import "github.com/shopspring/decimal"

// Cart - корзина пользователя вместе с позициями
type Cart struct {
	ID     int64       `json:"id"`
	UserID int64       `json:"user_id"`
	Items  []*CartItem `json:"items"`
}

// CartItem - позиция корзины; данные товара заполняются через JOIN с таблицей products
type CartItem struct {
	ID        int64           `json:"id"`
	CartID    int64           `json:"cart_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Stock     int             `json:"stock"`
}

// LineTotal - стоимость позиции
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total - сумма корзины по текущим ценам
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// IsEmpty сообщает, что в корзине нет позиций
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
