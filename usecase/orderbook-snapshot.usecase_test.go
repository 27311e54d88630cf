package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveJoined(ms *domain.MarketSymbol) string {
	return "t" + ms.Join("")
}

func newTestUseCase(t *testing.T) (*OrderBookSnapshotUseCase, *domain.OrderBookStorage) {
	t.Helper()
	storage := domain.NewOrderBookStorage()
	uc := NewOrderBookSnapshotUseCase(storage, map[string]SymbolResolver{"bitfinex": resolveJoined})
	return uc, storage
}

func level(price string, amount string) domain.PriceLevel {
	return domain.PriceLevel{Price: decimal.RequireFromString(price), Count: 1, Amount: decimal.RequireFromString(amount)}
}

func TestGetOrderBookSnapshot(t *testing.T) {
	uc, storage := newTestUseCase(t)

	book := &domain.BookSnapshot{
		Bids: []domain.PriceLevel{level("100", "1"), level("99", "2"), level("98", "3")},
		Asks: []domain.PriceLevel{level("101", "1"), level("102", "2")},
	}
	require.NoError(t, storage.OnBook(context.Background(), domain.NewBookEvent("bitfinex", "tBTCUSD", false, book)))

	symbol, err := domain.NewMarketSymbolFromString("BTC_USD")
	require.NoError(t, err)

	snapshot, err := uc.GetOrderBookSnapshot("bitfinex", symbol, 2, false)
	require.NoError(t, err)
	assert.Len(t, snapshot.Bids, 2)
	assert.Len(t, snapshot.Asks, 2)
	assert.Equal(t, "99", snapshot.Bids[1].Price.String())

	snapshot, err = uc.GetOrderBookSnapshot("bitfinex", symbol, 0, false)
	require.NoError(t, err)
	assert.Len(t, snapshot.Bids, 3)

	snapshot.Bids[0].Count = 42
	assert.Equal(t, int64(1), book.Bids[0].Count)
}

func TestGetOrderBookSnapshot_SelectsBookKind(t *testing.T) {
	uc, storage := newTestUseCase(t)
	symbol, _ := domain.NewMarketSymbolFromString("BTC_USD")

	aggregated := &domain.BookSnapshot{Bids: []domain.PriceLevel{level("100", "5")}}
	raw := &domain.BookSnapshot{Asks: []domain.PriceLevel{level("101", "2")}}
	require.NoError(t, storage.OnBook(context.Background(), domain.NewBookEvent("bitfinex", "tBTCUSD", false, aggregated)))
	require.NoError(t, storage.OnBook(context.Background(), domain.NewBookEvent("bitfinex", "tBTCUSD", true, raw)))

	for i := 0; i < 3; i++ {
		snapshot, err := uc.GetOrderBookSnapshot("bitfinex", symbol, 0, false)
		require.NoError(t, err)
		assert.Len(t, snapshot.Bids, 1)
		assert.Empty(t, snapshot.Asks)
	}

	snapshot, err := uc.GetOrderBookSnapshot("bitfinex", symbol, 0, true)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Bids)
	assert.Len(t, snapshot.Asks, 1)
}

func TestGetOrderBookSnapshot_NotFound(t *testing.T) {
	uc, storage := newTestUseCase(t)
	symbol, _ := domain.NewMarketSymbolFromString("ETH_USD")

	_, err := uc.GetOrderBookSnapshot("kraken", symbol, 10, false)
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)

	_, err = uc.GetOrderBookSnapshot("bitfinex", symbol, 10, false)
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)

	require.NoError(t, storage.OnBook(context.Background(), domain.NewBookEvent("bitfinex", "tBTCUSD", false, &domain.BookSnapshot{})))
	_, err = uc.GetOrderBookSnapshot("bitfinex", symbol, 10, false)
	assert.ErrorIs(t, err, domain.ErrOrderBookNotFound)
	_, err = uc.GetOrderBookSnapshot("bitfinex", symbol, 10, true)
	assert.ErrorIs(t, err, domain.ErrOrderBookNotFound)
}

func TestGetTicker(t *testing.T) {
	uc, storage := newTestUseCase(t)
	symbol, _ := domain.NewMarketSymbolFromString("BTC/USD")

	_, err := uc.GetTicker("bitfinex", symbol)
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)

	ticker := domain.NewTickerEvent("bitfinex", "tBTCUSD", decimal.NewFromInt(100), decimal.NewFromInt(101))
	require.NoError(t, storage.OnTicker(context.Background(), ticker))

	got, err := uc.GetTicker("bitfinex", symbol)
	require.NoError(t, err)
	assert.Same(t, ticker, got)
}
