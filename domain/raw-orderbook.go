package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// OrderUpdate is a single (order id, price, signed amount) entry of a raw book message.
// A zero price deletes the order.
type OrderUpdate struct {
	OrderID int64
	Price   decimal.Decimal
	Amount  decimal.Decimal
}

func (u OrderUpdate) IsDelete() bool {
	return u.Price.IsZero()
}

// RawOrderBook is the order-indexed (L3) book. Price levels are derived from
// individual orders; the index keeps one entry per order contributing to a level.
type RawOrderBook struct {
	book
	index *OrderIndex
}

func NewRawOrderBook(pair string) *RawOrderBook {
	return &RawOrderBook{
		book:  newBook(pair),
		index: NewOrderIndex(),
	}
}

func (rb *RawOrderBook) Index() *OrderIndex {
	return rb.index
}

// ApplySnapshot clears the book and the index and rebuilds both from the orders.
func (rb *RawOrderBook) ApplySnapshot(orders []OrderUpdate) {
	rb.reset()
	rb.index.Clear()

	for _, u := range orders {
		if u.IsDelete() {
			continue
		}
		if prior, ok := rb.index.Get(u.OrderID); ok {
			rb.withdraw(prior)
		}
		rb.place(u)
	}
}

// ApplyUpdate inserts, modifies or deletes a single order.
// A known order id is treated as a modify: its previous contribution is
// withdrawn before the new one is placed.
func (rb *RawOrderBook) ApplyUpdate(u OrderUpdate) error {
	if !rb.IsLive() {
		return rb.notLive()
	}

	prior, known := rb.index.Get(u.OrderID)

	if u.IsDelete() {
		if !known {
			return rb.desync("delete of unknown order " + strconv.FormatInt(u.OrderID, 10))
		}
		if !rb.withdraw(prior) {
			return rb.desync("order " + strconv.FormatInt(u.OrderID, 10) + " has no level at " + prior.Price.String())
		}
		rb.touch()
		return nil
	}

	if known && !rb.withdraw(prior) {
		return rb.desync("order " + strconv.FormatInt(u.OrderID, 10) + " has no level at " + prior.Price.String())
	}
	rb.place(u)
	rb.touch()
	return nil
}

func (rb *RawOrderBook) place(u OrderUpdate) {
	side, amount := SideFromAmount(u.Amount)
	depth := rb.side(side)

	if level, ok := depth.get(u.Price); ok {
		level.Count++
		level.Amount = level.Amount.Add(amount)
	} else {
		depth.set(&PriceLevel{Price: u.Price, Count: 1, Amount: amount})
	}

	rb.index.Put(Order{ID: u.OrderID, Price: u.Price, Amount: amount, Side: side})
}

// withdraw removes the order's contribution from its level and the order from the index.
// It reports false when the level the order points to does not exist.
func (rb *RawOrderBook) withdraw(o Order) bool {
	rb.index.Delete(o.ID)

	depth := rb.side(o.Side)
	level, ok := depth.get(o.Price)
	if !ok {
		return false
	}

	level.Count--
	level.Amount = level.Amount.Sub(o.Amount)
	if level.Count <= 0 {
		depth.remove(o.Price)
	}
	return true
}
