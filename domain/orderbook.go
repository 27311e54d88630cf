package domain

import (
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

type OrderBookStatus string

const (
	OrderBookStatus_Uninitialized OrderBookStatus = "Uninitialized"
	OrderBookStatus_Live          OrderBookStatus = "Live"
	OrderBookStatus_Desynced      OrderBookStatus = "Desynced"
)

const btreeDegree = 16

type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// LevelUpdate is a single (price, count, signed amount) entry of an aggregated book message.
type LevelUpdate struct {
	Price  decimal.Decimal
	Count  int64
	Amount decimal.Decimal
}

// BookSnapshot is a detached copy of a book. Bids are sorted from the highest
// price down, asks from the lowest price up.
type BookSnapshot struct {
	Bids           []PriceLevel `json:"bids"`
	Asks           []PriceLevel `json:"asks"`
	LastUpdateTime int64        `json:"lastUpdateTime"`
}

func (s *BookSnapshot) Level(side Side, price decimal.Decimal) (PriceLevel, bool) {
	depth := s.Asks
	if side == Bid {
		depth = s.Bids
	}
	for _, level := range depth {
		if level.Price.Equal(price) {
			return level, true
		}
	}
	return PriceLevel{}, false
}

// Limit returns a copy holding at most limit levels per side. Non-positive limit keeps everything.
func (s *BookSnapshot) Limit(limit int) *BookSnapshot {
	return &BookSnapshot{
		Bids:           limitDepth(s.Bids, limit),
		Asks:           limitDepth(s.Asks, limit),
		LastUpdateTime: s.LastUpdateTime,
	}
}

func limitDepth(depth []PriceLevel, limit int) []PriceLevel {
	if limit > 0 && len(depth) > limit {
		depth = depth[:limit]
	}

	out := make([]PriceLevel, len(depth))
	copy(out, depth)
	return out
}

// bookSide keeps the levels of one side ordered best price first.
type bookSide struct {
	levels *btree.BTreeG[*PriceLevel]
}

func newBookSide(side Side) *bookSide {
	less := func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	if side == Bid {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	}

	return &bookSide{levels: btree.NewG(btreeDegree, less)}
}

func (s *bookSide) get(price decimal.Decimal) (*PriceLevel, bool) {
	return s.levels.Get(&PriceLevel{Price: price})
}

func (s *bookSide) set(level *PriceLevel) (*PriceLevel, bool) {
	return s.levels.ReplaceOrInsert(level)
}

func (s *bookSide) remove(price decimal.Decimal) (*PriceLevel, bool) {
	return s.levels.Delete(&PriceLevel{Price: price})
}

func (s *bookSide) clear() {
	s.levels.Clear(false)
}

func (s *bookSide) len() int {
	return s.levels.Len()
}

func (s *bookSide) take(limit int) []PriceLevel {
	size := s.len()
	if limit > 0 && limit < size {
		size = limit
	}

	depth := make([]PriceLevel, 0, size)
	s.levels.Ascend(func(level *PriceLevel) bool {
		depth = append(depth, *level)
		return len(depth) < size
	})
	return depth
}

// book is the price-level state shared by the aggregated and the order-indexed books.
// It is owned by a single session and is not safe for concurrent use.
type book struct {
	Pair           string
	LastUpdateTime int64

	bids   *bookSide
	asks   *bookSide
	status OrderBookStatus
}

func newBook(pair string) book {
	return book{
		Pair:   pair,
		bids:   newBookSide(Bid),
		asks:   newBookSide(Ask),
		status: OrderBookStatus_Uninitialized,
	}
}

func (b *book) side(s Side) *bookSide {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

func (b *book) reset() {
	b.bids.clear()
	b.asks.clear()
	b.status = OrderBookStatus_Live
	b.touch()
}

func (b *book) touch() {
	b.LastUpdateTime = time.Now().UnixMilli()
}

func (b *book) Status() OrderBookStatus {
	return b.status
}

func (b *book) IsLive() bool {
	return b.status == OrderBookStatus_Live
}

// desync marks the book invalid until the next snapshot.
func (b *book) desync(reason string) error {
	b.status = OrderBookStatus_Desynced
	return &DesyncError{Pair: b.Pair, Reason: reason}
}

func (b *book) notLive() error {
	return &DesyncError{Pair: b.Pair, Reason: "delta on " + string(b.status) + " book, awaiting snapshot"}
}

func (b *book) Level(side Side, price decimal.Decimal) (PriceLevel, bool) {
	level, ok := b.side(side).get(price)
	if !ok {
		return PriceLevel{}, false
	}
	return *level, true
}

func (b *book) Depth(side Side) int {
	return b.side(side).len()
}

func (b *book) TakeSnapshot(limit int) *BookSnapshot {
	return &BookSnapshot{
		Bids:           b.bids.take(limit),
		Asks:           b.asks.take(limit),
		LastUpdateTime: b.LastUpdateTime,
	}
}

// OrderBook is the price-aggregated (L2) book: each level carries the
// exchange-supplied order counter and the cumulative size.
type OrderBook struct {
	book
}

func NewOrderBook(pair string) *OrderBook {
	return &OrderBook{book: newBook(pair)}
}

// ApplySnapshot replaces the whole book. Duplicate prices overwrite each other.
func (ob *OrderBook) ApplySnapshot(levels []LevelUpdate) {
	ob.reset()

	for _, u := range levels {
		side, amount := SideFromAmount(u.Amount)
		if u.Count <= 0 {
			continue
		}
		ob.side(side).set(&PriceLevel{Price: u.Price, Count: u.Count, Amount: amount})
	}
}

// ApplyUpdate upserts the level when count > 0 and removes it when count == 0.
// When an existing level is overwritten its prior value is returned.
func (ob *OrderBook) ApplyUpdate(u LevelUpdate) (*PriceLevel, error) {
	if !ob.IsLive() {
		return nil, ob.notLive()
	}

	side, amount := SideFromAmount(u.Amount)
	depth := ob.side(side)

	if u.Count > 0 {
		ob.touch()
		prior, replaced := depth.set(&PriceLevel{Price: u.Price, Count: u.Count, Amount: amount})
		if !replaced {
			return nil, nil
		}
		return prior, nil
	}

	if _, ok := depth.remove(u.Price); !ok {
		return nil, ob.desync("remove of missing " + string(side) + " level " + u.Price.String())
	}
	ob.touch()
	return nil, nil
}
