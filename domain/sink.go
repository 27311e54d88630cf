package domain

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/spooky-finn/bitfinex-feed-bridge/helpers"
)

// Sink receives normalized events. Calls are synchronous: the session does not
// read the next message until the sink returns.
type Sink interface {
	OnTicker(ctx context.Context, e *TickerEvent) error
	OnTrade(ctx context.Context, e *TradeEvent) error
	OnBook(ctx context.Context, e *BookEvent) error
}

// DesyncObserver is implemented by sinks that hold on to books and need to
// drop them once the session declares a book out of sync.
type DesyncObserver interface {
	OnDesync(ctx context.Context, source, pair string, raw bool)
}

// MultiSink delivers every event to each sink in order.
type MultiSink []Sink

func (m MultiSink) OnTicker(ctx context.Context, e *TickerEvent) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.OnTicker(ctx, e))
	}
	return errors.Join(errs...)
}

func (m MultiSink) OnTrade(ctx context.Context, e *TradeEvent) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.OnTrade(ctx, e))
	}
	return errors.Join(errs...)
}

func (m MultiSink) OnBook(ctx context.Context, e *BookEvent) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.OnBook(ctx, e))
	}
	return errors.Join(errs...)
}

func (m MultiSink) OnDesync(ctx context.Context, source, pair string, raw bool) {
	for _, s := range m {
		if o, ok := s.(DesyncObserver); ok {
			o.OnDesync(ctx, source, pair, raw)
		}
	}
}

// LogSink prints every event as JSON.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.New(os.Stdout, "[events] ", log.LstdFlags)
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) OnTicker(_ context.Context, e *TickerEvent) error {
	s.logger.Println(helpers.ToJsonString(e))
	return nil
}

func (s *LogSink) OnTrade(_ context.Context, e *TradeEvent) error {
	s.logger.Println(helpers.ToJsonString(e))
	return nil
}

func (s *LogSink) OnBook(_ context.Context, e *BookEvent) error {
	s.logger.Printf("book %s/%s bids=%d asks=%d", e.Source, e.Pair, len(e.Book.Bids), len(e.Book.Asks))
	return nil
}
