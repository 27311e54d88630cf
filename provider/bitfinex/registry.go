package bitfinex

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
)

type ChannelKind string

const (
	ChannelKind_Ticker  ChannelKind = "ticker"
	ChannelKind_Trades  ChannelKind = "trades"
	ChannelKind_Book    ChannelKind = "book"
	ChannelKind_RawBook ChannelKind = "book-raw"

	rawPrecision = "R0"
)

// Channel is a subscription bound to a channel id for the life of the session.
type Channel struct {
	ID     int64
	Symbol string
	Kind   ChannelKind

	Prec string
	Freq string
	Len  string
}

// Key identifies the subscription independently of the channel id, which
// changes every time the channel is subscribed again.
func (c *Channel) Key() string {
	return string(c.Kind) + ":" + c.Symbol
}

func (c *Channel) SubscribeRequest() SubscribeRequest {
	req := SubscribeRequest{Event: "subscribe", Channel: string(c.Kind), Symbol: c.Symbol}
	if c.Kind == ChannelKind_Book || c.Kind == ChannelKind_RawBook {
		req.Channel = string(ChannelKind_Book)
		req.Prec, req.Freq, req.Len = c.Prec, c.Freq, c.Len
	}
	return req
}

func channelFromControl(m *ControlMessage) (*Channel, error) {
	ch := &Channel{ID: *m.ChanID, Symbol: m.Symbol}

	switch m.Channel {
	case string(ChannelKind_Ticker):
		ch.Kind = ChannelKind_Ticker
	case string(ChannelKind_Trades):
		ch.Kind = ChannelKind_Trades
	case string(ChannelKind_Book):
		ch.Kind = ChannelKind_Book
		if m.Prec == rawPrecision {
			ch.Kind = ChannelKind_RawBook
		}
		ch.Prec = m.Prec
		ch.Freq = m.Freq
		ch.Len = strings.Trim(string(bytes.TrimSpace(m.Len)), `"`)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidChannelType, m.Channel)
	}

	return ch, nil
}

// ChannelRegistry maps channel ids to subscriptions. Owned by one session.
type ChannelRegistry struct {
	channels map[int64]*Channel
}

func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: make(map[int64]*Channel)}
}

// Register binds the channel id, replacing whatever was bound to it before.
func (r *ChannelRegistry) Register(ch *Channel) (prior *Channel, replaced bool) {
	prior, replaced = r.channels[ch.ID]
	r.channels[ch.ID] = ch
	return prior, replaced
}

func (r *ChannelRegistry) Resolve(id int64) (*Channel, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: chanId=%d", domain.ErrUnknownChannel, id)
	}
	return ch, nil
}

func (r *ChannelRegistry) Unregister(id int64) (*Channel, bool) {
	ch, ok := r.channels[id]
	delete(r.channels, id)
	return ch, ok
}

func (r *ChannelRegistry) Len() int {
	return len(r.channels)
}
