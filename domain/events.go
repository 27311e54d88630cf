package domain

import "github.com/shopspring/decimal"

type EventKind string

const (
	EventKind_Ticker EventKind = "ticker"
	EventKind_Trade  EventKind = "trade"
	EventKind_Book   EventKind = "book"
)

type TickerEvent struct {
	Source string          `json:"source"`
	Kind   EventKind       `json:"kind"`
	Pair   string          `json:"pair"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
}

// TradeEvent carries the exchange trade id and timestamp so a consumer can
// drop executions it has already seen.
type TradeEvent struct {
	Source    string          `json:"source"`
	Kind      EventKind       `json:"kind"`
	Pair      string          `json:"pair"`
	Side      TradeSide       `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	TradeID   int64           `json:"tradeId"`
	Timestamp int64           `json:"timestamp"`
}

// BookEvent is a full-state push of one symbol's book.
type BookEvent struct {
	Source string        `json:"source"`
	Kind   EventKind     `json:"kind"`
	Pair   string        `json:"pair"`
	Raw    bool          `json:"raw"`
	Book   *BookSnapshot `json:"book"`
}

func NewTickerEvent(source, pair string, bid, ask decimal.Decimal) *TickerEvent {
	return &TickerEvent{Source: source, Kind: EventKind_Ticker, Pair: pair, Bid: bid, Ask: ask}
}

func NewTradeEvent(source, pair string, tradeID, timestamp int64, signedAmount, price decimal.Decimal) *TradeEvent {
	side, amount := SideFromAmount(signedAmount)
	return &TradeEvent{
		Source:    source,
		Kind:      EventKind_Trade,
		Pair:      pair,
		Side:      side.TradeSide(),
		Amount:    amount,
		Price:     price,
		TradeID:   tradeID,
		Timestamp: timestamp,
	}
}

func NewBookEvent(source, pair string, raw bool, snapshot *BookSnapshot) *BookEvent {
	return &BookEvent{Source: source, Kind: EventKind_Book, Pair: pair, Raw: raw, Book: snapshot}
}
