package bitfinex

import (
	"fmt"
	"strings"

	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
)

type SubscribeRequest struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	Symbol  string `json:"symbol"`
	Prec    string `json:"prec,omitempty"`
	Freq    string `json:"freq,omitempty"`
	Len     string `json:"len,omitempty"`
}

type UnsubscribeRequest struct {
	Event  string `json:"event"`
	ChanID int64  `json:"chanId"`
}

func NewUnsubscribeRequest(chanID int64) UnsubscribeRequest {
	return UnsubscribeRequest{Event: "unsubscribe", ChanID: chanID}
}

// TradingSymbol renders a market symbol the way the exchange names trading
// pairs: tBTCUSD, or tTESTBTC:TESTUSD when an asset is longer than 3 letters.
func TradingSymbol(ms *domain.MarketSymbol) string {
	if len(ms.BaseAsset) > 3 || len(ms.QuoteAsset) > 3 {
		return "t" + ms.Join(":")
	}
	return "t" + ms.Join("")
}

// NewSubscribeRequest builds the request for a channel spec: "ticker",
// "trades", "book" or "book-<prec>-<freq>-<len>". Book parameters left out
// fall back to the exchange defaults.
func NewSubscribeRequest(channelSpec string, symbol string) (SubscribeRequest, error) {
	parts := strings.Split(strings.TrimSpace(channelSpec), "-")
	req := SubscribeRequest{Event: "subscribe", Channel: parts[0], Symbol: symbol}

	switch parts[0] {
	case string(ChannelKind_Ticker), string(ChannelKind_Trades):
		if len(parts) != 1 {
			return req, fmt.Errorf("%w: %q takes no parameters", domain.ErrInvalidChannelType, channelSpec)
		}
	case string(ChannelKind_Book):
		if len(parts) > 4 {
			return req, fmt.Errorf("%w: %q has too many parameters", domain.ErrInvalidChannelType, channelSpec)
		}
		params := []*string{&req.Prec, &req.Freq, &req.Len}
		for i, p := range parts[1:] {
			*params[i] = p
		}
	default:
		return req, fmt.Errorf("%w: %q", domain.ErrInvalidChannelType, channelSpec)
	}

	return req, nil
}

// SubscribeRequests builds one request per channel spec and market pair.
func SubscribeRequests(channelSpecs []string, pairs []string) ([]SubscribeRequest, error) {
	var out []SubscribeRequest

	for _, pair := range pairs {
		ms, err := domain.NewMarketSymbolFromString(pair)
		if err != nil {
			return nil, err
		}

		for _, spec := range channelSpecs {
			req, err := NewSubscribeRequest(spec, TradingSymbol(ms))
			if err != nil {
				return nil, err
			}
			out = append(out, req)
		}
	}

	return out, nil
}
