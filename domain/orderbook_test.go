package domain

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lvl(price string, count int64, amount string) LevelUpdate {
	return LevelUpdate{Price: d(price), Count: count, Amount: d(amount)}
}

func assertLevel(t *testing.T, b *book, side Side, price string, count int64, amount string) {
	t.Helper()
	level, ok := b.Level(side, d(price))
	require.True(t, ok, "level %s %s should exist", side, price)
	assert.Equal(t, count, level.Count, "count at %s %s", side, price)
	assert.True(t, d(amount).Equal(level.Amount), "amount at %s %s: want %s got %s", side, price, amount, level.Amount)
}

func depthString(depth []PriceLevel) []string {
	out := make([]string, 0, len(depth))
	for _, l := range depth {
		out = append(out, l.Price.String()+"/"+decimal.NewFromInt(l.Count).String()+"/"+l.Amount.String())
	}
	return out
}

func TestOrderBook_ApplySnapshot(t *testing.T) {
	ob := NewOrderBook("tBTCUSD")
	assert.Equal(t, OrderBookStatus_Uninitialized, ob.Status())

	ob.ApplySnapshot([]LevelUpdate{lvl("100", 1, "5"), lvl("99", 1, "-3")})

	assert.Equal(t, OrderBookStatus_Live, ob.Status())
	assertLevel(t, &ob.book, Bid, "100", 1, "5")
	assertLevel(t, &ob.book, Ask, "99", 1, "3")
	assert.Equal(t, 1, ob.Depth(Bid))
	assert.Equal(t, 1, ob.Depth(Ask))
}

func TestOrderBook_SnapshotIsFullReplace(t *testing.T) {
	snapshot := []LevelUpdate{lvl("100", 1, "5"), lvl("101", 2, "-3"), lvl("100", 3, "4")}
	ob := NewOrderBook("tBTCUSD")

	ob.ApplySnapshot(snapshot)
	first := ob.TakeSnapshot(0)
	ob.ApplySnapshot(snapshot)
	second := ob.TakeSnapshot(0)

	assert.Equal(t, depthString(first.Bids), depthString(second.Bids))
	assert.Equal(t, depthString(first.Asks), depthString(second.Asks))
	// duplicate price in the snapshot overwrites
	assertLevel(t, &ob.book, Bid, "100", 3, "4")

	ob.ApplySnapshot([]LevelUpdate{lvl("50", 1, "1")})
	_, ok := ob.Level(Bid, d("100"))
	assert.False(t, ok, "previous snapshot levels should be discarded")
	assert.Equal(t, 0, ob.Depth(Ask))
}

func TestOrderBook_ApplyUpdate(t *testing.T) {
	ob := NewOrderBook("tBTCUSD")
	ob.ApplySnapshot([]LevelUpdate{lvl("100", 1, "5"), lvl("99", 1, "-3")})

	prior, err := ob.ApplyUpdate(lvl("98", 2, "7"))
	require.NoError(t, err)
	assert.Nil(t, prior, "new level has no prior value")
	assertLevel(t, &ob.book, Bid, "98", 2, "7")

	// replace, not merge
	prior, err = ob.ApplyUpdate(lvl("100", 4, "1.5"))
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, int64(1), prior.Count)
	assert.True(t, d("5").Equal(prior.Amount))
	assertLevel(t, &ob.book, Bid, "100", 4, "1.5")

	_, err = ob.ApplyUpdate(lvl("100", 0, "1"))
	require.NoError(t, err)
	_, ok := ob.Level(Bid, d("100"))
	assert.False(t, ok, "level with count 0 must be removed")

	_, err = ob.ApplyUpdate(lvl("99", 0, "-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, ob.Depth(Ask))
}

func TestOrderBook_RemoveMissingLevelDesyncs(t *testing.T) {
	ob := NewOrderBook("tBTCUSD")
	ob.ApplySnapshot([]LevelUpdate{lvl("100", 1, "5")})

	_, err := ob.ApplyUpdate(lvl("100", 0, "-1"))
	require.Error(t, err)
	assert.True(t, IsErrDesync(err))
	assert.False(t, IsRecoverable(err))
	assert.Equal(t, OrderBookStatus_Desynced, ob.Status())

	// further deltas are refused until a snapshot arrives
	_, err = ob.ApplyUpdate(lvl("101", 1, "1"))
	assert.True(t, IsErrDesync(err))
	_, ok := ob.Level(Bid, d("101"))
	assert.False(t, ok)

	ob.ApplySnapshot([]LevelUpdate{lvl("100", 1, "5")})
	assert.Equal(t, OrderBookStatus_Live, ob.Status())
	_, err = ob.ApplyUpdate(lvl("101", 1, "1"))
	assert.NoError(t, err)
}

func TestOrderBook_UpdateBeforeSnapshot(t *testing.T) {
	ob := NewOrderBook("tBTCUSD")

	_, err := ob.ApplyUpdate(lvl("100", 1, "5"))

	var desync *DesyncError
	require.ErrorAs(t, err, &desync)
	assert.Equal(t, "tBTCUSD", desync.Pair)
	assert.Equal(t, 0, ob.Depth(Bid))
}

func TestOrderBook_TakeSnapshot(t *testing.T) {
	ob := NewOrderBook("tBTCUSD")
	ob.ApplySnapshot([]LevelUpdate{
		lvl("9900", 1, "2"), lvl("10000", 1, "1"), lvl("9800", 1, "3"),
		lvl("10200", 1, "-2.5"), lvl("10100", 1, "-1.5"),
	})

	snapshot := ob.TakeSnapshot(0)
	assert.Equal(t, []string{"10000/1/1", "9900/1/2", "9800/1/3"}, depthString(snapshot.Bids), "bids best first")
	assert.Equal(t, []string{"10100/1/1.5", "10200/1/2.5"}, depthString(snapshot.Asks), "asks best first")

	limited := ob.TakeSnapshot(2)
	assert.Len(t, limited.Bids, 2)
	assert.Len(t, limited.Asks, 2)

	// the snapshot is detached from the book
	_, err := ob.ApplyUpdate(lvl("10000", 0, "1"))
	require.NoError(t, err)
	assert.Len(t, snapshot.Bids, 3)

	level, ok := snapshot.Level(Ask, d("10200"))
	require.True(t, ok)
	assert.True(t, d("2.5").Equal(level.Amount))
}

func TestLimitDepth(t *testing.T) {
	snapshot := &BookSnapshot{
		Bids: []PriceLevel{{Price: d("2"), Count: 1, Amount: d("1")}, {Price: d("1"), Count: 1, Amount: d("1")}},
		Asks: []PriceLevel{{Price: d("3"), Count: 1, Amount: d("1")}},
	}

	assert.Len(t, snapshot.Limit(3).Bids, 2, "Bids should be limited to 2")
	assert.Len(t, snapshot.Limit(1).Bids, 1, "Bids should be limited to 1")
	assert.Len(t, snapshot.Limit(0).Bids, 2, "zero limit keeps everything")
	assert.Len(t, snapshot.Limit(1).Asks, 1)
}

func TestOrderBook_LevelsStayPositive(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	ob := NewOrderBook("tBTCUSD")
	ob.ApplySnapshot(nil)

	for i := 0; i < 2000; i++ {
		price := decimal.NewFromInt(int64(90 + rnd.Intn(20)))
		amount := decimal.NewFromInt(int64(rnd.Intn(10) + 1))
		if rnd.Intn(2) == 0 {
			amount = amount.Neg()
		}
		side, _ := SideFromAmount(amount)
		count := int64(rnd.Intn(3))

		if count == 0 {
			if _, ok := ob.Level(side, price); !ok {
				continue
			}
		}

		_, err := ob.ApplyUpdate(LevelUpdate{Price: price, Count: count, Amount: amount})
		require.NoError(t, err)
	}

	snapshot := ob.TakeSnapshot(0)
	for _, level := range append(snapshot.Bids, snapshot.Asks...) {
		assert.Greater(t, level.Count, int64(0))
		assert.False(t, level.Amount.IsNegative())
	}
}
