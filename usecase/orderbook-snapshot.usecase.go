package usecase

import (
	"fmt"
	"log"
	"os"

	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
)

var logger = log.New(os.Stdout, "[orderbook-snapshot-usecase] ", log.LstdFlags)

// SymbolResolver maps a market symbol to the name the provider publishes it under.
type SymbolResolver func(symbol *domain.MarketSymbol) string

type OrderBookSnapshotUseCase struct {
	storage   *domain.OrderBookStorage
	resolvers map[string]SymbolResolver
}

func NewOrderBookSnapshotUseCase(
	storage *domain.OrderBookStorage, resolvers map[string]SymbolResolver,
) *OrderBookSnapshotUseCase {
	return &OrderBookSnapshotUseCase{
		storage:   storage,
		resolvers: resolvers,
	}
}

// GetOrderBookSnapshot returns the latest book pushed by the feed, cut to limit
// levels per side. raw selects the order-indexed book instead of the aggregated one.
func (o *OrderBookSnapshotUseCase) GetOrderBookSnapshot(
	provider string, symbol *domain.MarketSymbol, limit int, raw bool,
) (*domain.BookSnapshot, error) {
	pair, err := o.pair(provider, symbol)
	if err != nil {
		return nil, err
	}

	event, err := o.storage.Get(provider, pair, raw)
	if err != nil {
		logger.Printf("no order book for Provider=%s, Symbol=%s: %v", provider, symbol.String(), err)
		return nil, err
	}

	return event.Book.Limit(limit), nil
}

func (o *OrderBookSnapshotUseCase) GetTicker(
	provider string, symbol *domain.MarketSymbol,
) (*domain.TickerEvent, error) {
	pair, err := o.pair(provider, symbol)
	if err != nil {
		return nil, err
	}

	return o.storage.Ticker(provider, pair)
}

func (o *OrderBookSnapshotUseCase) pair(provider string, symbol *domain.MarketSymbol) (string, error) {
	resolve, ok := o.resolvers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrProviderNotFound, provider)
	}
	return resolve(symbol), nil
}
