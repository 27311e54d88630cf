package domain

import "github.com/shopspring/decimal"

// Order is a resting order as last seen on a raw book channel.
type Order struct {
	ID     int64
	Price  decimal.Decimal
	Amount decimal.Decimal
	Side   Side
}

// OrderIndex resolves an order id to the level it contributes to.
type OrderIndex struct {
	orders map[int64]Order
}

func NewOrderIndex() *OrderIndex {
	return &OrderIndex{orders: make(map[int64]Order)}
}

func (i *OrderIndex) Get(id int64) (Order, bool) {
	o, ok := i.orders[id]
	return o, ok
}

func (i *OrderIndex) Put(o Order) {
	i.orders[o.ID] = o
}

func (i *OrderIndex) Delete(id int64) {
	delete(i.orders, id)
}

func (i *OrderIndex) Len() int {
	return len(i.orders)
}

func (i *OrderIndex) Clear() {
	i.orders = make(map[int64]Order)
}

// AtPrice returns the orders recorded at the given side and price.
func (i *OrderIndex) AtPrice(side Side, price decimal.Decimal) []Order {
	var out []Order
	for _, o := range i.orders {
		if o.Side == side && o.Price.Equal(price) {
			out = append(out, o)
		}
	}
	return out
}
