package domain

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
)

// bookKey separates the aggregated and the order-indexed book of one pair.
type bookKey struct {
	pair string
	raw  bool
}

// OrderBookStorage keeps the latest book and ticker per provider and pair.
// It is a Sink, and it is read concurrently by the snapshot API.
type OrderBookStorage struct {
	mu      sync.RWMutex
	books   map[string]map[bookKey]*BookEvent
	tickers map[string]map[string]*TickerEvent
}

var logger = log.New(os.Stdout, "[orderbook-storage] ", log.LstdFlags)
var ErrOrderBookNotFound = errors.New("order book not found")
var ErrTickerNotFound = errors.New("ticker not found")
var ErrProviderNotFound = errors.New("provider not found")

func NewOrderBookStorage() *OrderBookStorage {
	return &OrderBookStorage{
		books:   make(map[string]map[bookKey]*BookEvent),
		tickers: make(map[string]map[string]*TickerEvent),
	}
}

func (o *OrderBookStorage) OnBook(_ context.Context, e *BookEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.books[e.Source]; !ok {
		o.books[e.Source] = make(map[bookKey]*BookEvent)
	}
	o.books[e.Source][bookKey{pair: e.Pair, raw: e.Raw}] = e
	return nil
}

func (o *OrderBookStorage) OnTicker(_ context.Context, e *TickerEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.tickers[e.Source]; !ok {
		o.tickers[e.Source] = make(map[string]*TickerEvent)
	}
	o.tickers[e.Source][e.Pair] = e
	return nil
}

// OnTrade is a no-op: trade history is not retained.
func (o *OrderBookStorage) OnTrade(context.Context, *TradeEvent) error {
	return nil
}

// OnDesync forgets the desynced book so a stale book is never served. The
// other kind of book of the same pair is kept.
func (o *OrderBookStorage) OnDesync(_ context.Context, provider, pair string, raw bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.books[provider]; ok {
		delete(o.books[provider], bookKey{pair: pair, raw: raw})
	}
}

// Get returns the aggregated book of the pair, or the order-indexed one when raw is set.
func (o *OrderBookStorage) Get(provider, pair string, raw bool) (*BookEvent, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, ok := o.books[provider]; !ok {
		return nil, ErrProviderNotFound
	}

	e, ok := o.books[provider][bookKey{pair: pair, raw: raw}]
	if !ok {
		return nil, ErrOrderBookNotFound
	}

	return e, nil
}

func (o *OrderBookStorage) Ticker(provider, pair string) (*TickerEvent, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, ok := o.tickers[provider]; !ok {
		return nil, ErrProviderNotFound
	}

	if _, ok := o.tickers[provider][pair]; !ok {
		return nil, ErrTickerNotFound
	}

	return o.tickers[provider][pair], nil
}

func (o *OrderBookStorage) OrderBookCount(provider string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, ok := o.books[provider]; !ok {
		logger.Println("provider not found")
		return -1
	}

	return len(o.books[provider])
}
