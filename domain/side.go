package domain

import "github.com/shopspring/decimal"

type Side string
type TradeSide string

const (
	Bid Side = "bid"
	Ask Side = "ask"

	TradeSide_Buy  TradeSide = "BUY"
	TradeSide_Sell TradeSide = "SELL"
)

// SideFromAmount derives the side from a signed size: positive is a bid,
// anything else an ask. The returned amount is always the absolute value.
func SideFromAmount(signed decimal.Decimal) (Side, decimal.Decimal) {
	if signed.IsPositive() {
		return Bid, signed
	}
	return Ask, signed.Abs()
}

func (s Side) TradeSide() TradeSide {
	if s == Bid {
		return TradeSide_Buy
	}
	return TradeSide_Sell
}
