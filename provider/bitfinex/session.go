package bitfinex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spooky-finn/bitfinex-feed-bridge/config"
	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
	"github.com/spooky-finn/bitfinex-feed-bridge/helpers"
	promclient "github.com/spooky-finn/bitfinex-feed-bridge/infrastructure/prometheus"
)

const ProviderName = "bitfinex"

var logger = log.New(os.Stdout, "[bitfinex] ", log.LstdFlags)

// Session holds the state of one connection: the channel registry and the
// books of every subscribed symbol. Messages must be handed to it one at a
// time, in wire order.
type Session struct {
	source   string
	registry *ChannelRegistry
	books    map[string]*domain.OrderBook
	rawBooks map[string]*domain.RawOrderBook

	sink    domain.Sink
	logger  *log.Logger
	metrics *promclient.Metrics
}

func NewSession(sink domain.Sink, l *log.Logger, metrics *promclient.Metrics) *Session {
	if l == nil {
		l = logger
	}
	return &Session{
		source:   ProviderName,
		registry: NewChannelRegistry(),
		books:    make(map[string]*domain.OrderBook),
		rawBooks: make(map[string]*domain.RawOrderBook),
		sink:     sink,
		logger:   l,
		metrics:  metrics,
	}
}

func (s *Session) Registry() *ChannelRegistry {
	return s.registry
}

func (s *Session) OrderBook(symbol string) (*domain.OrderBook, bool) {
	ob, ok := s.books[symbol]
	return ob, ok
}

func (s *Session) RawOrderBook(symbol string) (*domain.RawOrderBook, bool) {
	rb, ok := s.rawBooks[symbol]
	return rb, ok
}

// HandleMessage applies one raw frame and delivers the resulting events to
// the sink before returning. Recoverable conditions and desyncs are logged
// and returned; the session stays usable after any error.
func (s *Session) HandleMessage(ctx context.Context, raw []byte) error {
	msg, err := parseMessage(raw)
	if err == nil {
		switch m := msg.(type) {
		case *ControlMessage:
			err = s.handleControl(m)
		case *UnsubscribedMessage:
			s.handleUnsubscribed(m)
		case *DataMessage:
			err = s.handleData(ctx, m)
		}
	}

	if err != nil {
		s.report(ctx, err, raw)
	}
	return err
}

func (s *Session) report(ctx context.Context, err error, raw []byte) {
	var desync *domain.DesyncError

	switch {
	case errors.As(err, &desync):
		s.metrics.ObserveDesync(s.source, desync.Pair)
		s.logger.Printf("book invalidated, waiting for snapshot: %v", err)
		if o, ok := s.sink.(domain.DesyncObserver); ok {
			o.OnDesync(ctx, s.source, desync.Pair, desync.Raw)
		}
	case domain.IsRecoverable(err):
		s.metrics.ObserveDrop(s.source, dropReason(err))
		s.logger.Printf("dropped message: %v: %s", err, helpers.Abbrev(raw))
	default:
		s.logger.Printf("sink error: %v", err)
	}
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownChannel):
		return "unknown_channel"
	case errors.Is(err, domain.ErrInvalidChannelType):
		return "invalid_channel_type"
	case errors.Is(err, domain.ErrUnexpectedTickerMessage):
		return "unexpected_ticker_message"
	case errors.Is(err, domain.ErrUnexpectedTradeMessage):
		return "unexpected_trade_message"
	case errors.Is(err, domain.ErrUnexpectedBookMessage):
		return "unexpected_book_message"
	}
	return "unrecognized_message"
}

func (s *Session) handleControl(m *ControlMessage) error {
	ch, err := channelFromControl(m)
	if err != nil {
		return err
	}

	if prior, replaced := s.registry.Register(ch); replaced {
		s.logger.Printf("chanId=%d re-announced: %s -> %s", ch.ID, prior.Key(), ch.Key())
	} else if config.DebugMode {
		s.logger.Printf("subscribed chanId=%d %s", ch.ID, ch.Key())
	}

	switch ch.Kind {
	case ChannelKind_Book:
		s.orderBook(ch.Symbol)
	case ChannelKind_RawBook:
		s.rawOrderBook(ch.Symbol)
	}
	return nil
}

func (s *Session) handleUnsubscribed(m *UnsubscribedMessage) {
	if ch, ok := s.registry.Unregister(m.ChanID); ok {
		s.logger.Printf("unsubscribed chanId=%d %s", ch.ID, ch.Key())
	}
}

func (s *Session) handleData(ctx context.Context, m *DataMessage) error {
	ch, err := s.registry.Resolve(m.ChanID)
	if err != nil {
		return err
	}
	s.metrics.ObserveMessage(s.source, string(ch.Kind))

	switch ch.Kind {
	case ChannelKind_Ticker:
		return s.handleTicker(ctx, ch, m.Payload)
	case ChannelKind_Trades:
		return s.handleTrades(ctx, ch, m.Payload)
	case ChannelKind_Book:
		return s.handleBook(ctx, ch, m.Payload)
	case ChannelKind_RawBook:
		return s.handleRawBook(ctx, ch, m.Payload)
	}
	return fmt.Errorf("%w: %q", domain.ErrInvalidChannelType, ch.Kind)
}

func (s *Session) handleTicker(ctx context.Context, ch *Channel, payload []json.RawMessage) error {
	data, err := parseTicker(payload)
	if err != nil || data.Heartbeat {
		return err
	}
	return s.sink.OnTicker(ctx, domain.NewTickerEvent(s.source, ch.Symbol, data.Bid, data.Ask))
}

func (s *Session) handleTrades(ctx context.Context, ch *Channel, payload []json.RawMessage) error {
	data, err := parseTrades(payload)
	if err != nil || data.Heartbeat || data.Suppressed {
		return err
	}

	for _, t := range data.Trades {
		event := domain.NewTradeEvent(s.source, ch.Symbol, t.ID, t.Timestamp, t.Amount, t.Price)
		if err := s.sink.OnTrade(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handleBook(ctx context.Context, ch *Channel, payload []json.RawMessage) error {
	ob := s.orderBook(ch.Symbol)

	data, err := parseBook(payload)
	switch {
	case err != nil, data.Heartbeat:
	case data.Snapshot:
		ob.ApplySnapshot(data.Levels)
	default:
		prior, uerr := ob.ApplyUpdate(data.Levels[0])
		err = withChannel(uerr, ch)
		if prior != nil && config.DebugMode {
			s.logger.Printf("%s level %s replaced, was %s", ch.Symbol, prior.Price, helpers.ToJsonString(prior))
		}
	}

	return errors.Join(err, s.pushBook(ctx, ch, false, ob))
}

func (s *Session) handleRawBook(ctx context.Context, ch *Channel, payload []json.RawMessage) error {
	rb := s.rawOrderBook(ch.Symbol)

	data, err := parseRawBook(payload)
	switch {
	case err != nil, data.Heartbeat:
	case data.Snapshot:
		rb.ApplySnapshot(data.Orders)
	default:
		err = withChannel(rb.ApplyUpdate(data.Orders[0]), ch)
	}

	return errors.Join(err, s.pushBook(ctx, ch, true, rb))
}

type snapshotter interface {
	IsLive() bool
	TakeSnapshot(limit int) *domain.BookSnapshot
}

// pushBook hands the full current book to the sink. Books that are not live
// are never pushed.
func (s *Session) pushBook(ctx context.Context, ch *Channel, raw bool, book snapshotter) error {
	if !book.IsLive() {
		return nil
	}
	return s.sink.OnBook(ctx, domain.NewBookEvent(s.source, ch.Symbol, raw, book.TakeSnapshot(0)))
}

func (s *Session) orderBook(symbol string) *domain.OrderBook {
	ob, ok := s.books[symbol]
	if !ok {
		ob = domain.NewOrderBook(symbol)
		s.books[symbol] = ob
		s.metrics.SetOpenOrderBooks(s.source, string(ChannelKind_Book), len(s.books))
	}
	return ob
}

func (s *Session) rawOrderBook(symbol string) *domain.RawOrderBook {
	rb, ok := s.rawBooks[symbol]
	if !ok {
		rb = domain.NewRawOrderBook(symbol)
		s.rawBooks[symbol] = rb
		s.metrics.SetOpenOrderBooks(s.source, string(ChannelKind_RawBook), len(s.rawBooks))
	}
	return rb
}

func withChannel(err error, ch *Channel) error {
	var desync *domain.DesyncError
	if errors.As(err, &desync) {
		desync.ChanID = ch.ID
		desync.Raw = ch.Kind == ChannelKind_RawBook
	}
	return err
}
