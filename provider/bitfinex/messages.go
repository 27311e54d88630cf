package bitfinex

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
)

const (
	heartbeat     = "hb"
	tradeExecuted = "te"
	tradeUpdated  = "tu"

	eventSubscribed   = "subscribed"
	eventUnsubscribed = "unsubscribed"
	eventError        = "error"

	tickerFields = 10
)

// message is one of *ControlMessage, *UnsubscribedMessage or *DataMessage.
type message interface {
	isMessage()
}

// ControlMessage announces the channel id bound to a subscription.
type ControlMessage struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	ChanID  *int64          `json:"chanId"`
	Symbol  string          `json:"symbol"`
	Prec    string          `json:"prec"`
	Freq    string          `json:"freq"`
	Len     json.RawMessage `json:"len"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
}

type UnsubscribedMessage struct {
	ChanID int64
}

// DataMessage is a channel frame: [chanId, payload...].
type DataMessage struct {
	ChanID  int64
	Payload []json.RawMessage
}

func (*ControlMessage) isMessage()      {}
func (*UnsubscribedMessage) isMessage() {}
func (*DataMessage) isMessage()         {}

// parseMessage classifies a raw frame. Anything that is neither a data frame
// nor a subscription event is ErrUnrecognizedMessage.
func parseMessage(raw []byte) (message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty frame", domain.ErrUnrecognizedMessage)
	}

	switch trimmed[0] {
	case '[':
		var fields []json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnrecognizedMessage, err)
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: data frame without payload", domain.ErrUnrecognizedMessage)
		}

		var chanID int64
		if err := json.Unmarshal(fields[0], &chanID); err != nil {
			return nil, fmt.Errorf("%w: channel id is not an integer", domain.ErrUnrecognizedMessage)
		}
		return &DataMessage{ChanID: chanID, Payload: fields[1:]}, nil

	case '{':
		c := &ControlMessage{}
		if err := json.Unmarshal(trimmed, c); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnrecognizedMessage, err)
		}

		switch {
		case c.ChanID != nil && c.Symbol != "" && c.Channel != "":
			return c, nil
		case c.ChanID != nil && c.Event == eventUnsubscribed:
			return &UnsubscribedMessage{ChanID: *c.ChanID}, nil
		case c.Event == eventError:
			return nil, fmt.Errorf("%w: exchange error code=%d: %s", domain.ErrUnrecognizedMessage, c.Code, c.Msg)
		}
		return nil, fmt.Errorf("%w: event %q", domain.ErrUnrecognizedMessage, c.Event)
	}

	return nil, fmt.Errorf("%w: not an array or object", domain.ErrUnrecognizedMessage)
}

func isHeartbeat(payload []json.RawMessage) bool {
	return len(payload) > 0 && string(bytes.TrimSpace(payload[0])) == `"`+heartbeat+`"`
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeTuple decodes a positional JSON array into fields. Extra trailing
// elements are ignored.
func decodeTuple(raw []byte, fields ...interface{}) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return err
	}
	if len(elems) < len(fields) {
		return fmt.Errorf("tuple has %d fields, want %d", len(elems), len(fields))
	}
	for i, f := range fields {
		if err := json.Unmarshal(elems[i], f); err != nil {
			return fmt.Errorf("tuple field %d: %w", i, err)
		}
	}
	return nil
}

type TickerData struct {
	Heartbeat bool

	Bid             decimal.Decimal
	BidSize         decimal.Decimal
	Ask             decimal.Decimal
	AskSize         decimal.Decimal
	DailyChange     decimal.Decimal
	DailyChangePerc decimal.Decimal
	LastPrice       decimal.Decimal
	Volume          decimal.Decimal
	High            decimal.Decimal
	Low             decimal.Decimal
}

func parseTicker(payload []json.RawMessage) (*TickerData, error) {
	if isHeartbeat(payload) {
		return &TickerData{Heartbeat: true}, nil
	}

	var f []decimal.Decimal
	if err := json.Unmarshal(payload[0], &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedTickerMessage, err)
	}
	if len(f) != tickerFields {
		return nil, fmt.Errorf("%w: %d fields, want %d", domain.ErrUnexpectedTickerMessage, len(f), tickerFields)
	}

	return &TickerData{
		Bid:             f[0],
		BidSize:         f[1],
		Ask:             f[2],
		AskSize:         f[3],
		DailyChange:     f[4],
		DailyChangePerc: f[5],
		LastPrice:       f[6],
		Volume:          f[7],
		High:            f[8],
		Low:             f[9],
	}, nil
}

// [trade_id, timestamp, signed_amount, price]
type tradeTuple struct {
	ID        int64
	Timestamp int64
	Amount    decimal.Decimal
	Price     decimal.Decimal
}

func (t *tradeTuple) UnmarshalJSON(b []byte) error {
	return decodeTuple(b, &t.ID, &t.Timestamp, &t.Amount, &t.Price)
}

type TradeData struct {
	Heartbeat bool
	Snapshot  bool
	// Suppressed marks the "tu" echo of an execution already delivered as "te".
	Suppressed bool
	Trades     []tradeTuple
}

func parseTrades(payload []json.RawMessage) (*TradeData, error) {
	if isHeartbeat(payload) {
		return &TradeData{Heartbeat: true}, nil
	}

	if isArray(payload[0]) {
		var trades []tradeTuple
		if err := json.Unmarshal(payload[0], &trades); err != nil {
			return nil, fmt.Errorf("%w: snapshot: %v", domain.ErrUnexpectedTradeMessage, err)
		}
		return &TradeData{Snapshot: true, Trades: trades}, nil
	}

	var tag string
	if err := json.Unmarshal(payload[0], &tag); err != nil || len(payload) < 2 {
		return nil, fmt.Errorf("%w: unknown payload", domain.ErrUnexpectedTradeMessage)
	}

	switch tag {
	case tradeExecuted:
		var trade tradeTuple
		if err := json.Unmarshal(payload[1], &trade); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnexpectedTradeMessage, tag, err)
		}
		return &TradeData{Trades: []tradeTuple{trade}}, nil
	case tradeUpdated:
		return &TradeData{Suppressed: true}, nil
	}

	return nil, fmt.Errorf("%w: tag %q", domain.ErrUnexpectedTradeMessage, tag)
}

// bookRows splits a book payload into its rows. A single row is a delta,
// an array of rows (possibly empty) is a snapshot.
func bookRows(payload []json.RawMessage) (rows []json.RawMessage, snapshot bool, err error) {
	if !isArray(payload[0]) {
		return nil, false, fmt.Errorf("%w: payload is not an array", domain.ErrUnexpectedBookMessage)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(payload[0], &elems); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrUnexpectedBookMessage, err)
	}

	if len(elems) == 0 || isArray(elems[0]) {
		return elems, true, nil
	}
	return []json.RawMessage{payload[0]}, false, nil
}

type AggregatedBookData struct {
	Heartbeat bool
	Snapshot  bool
	Levels    []domain.LevelUpdate
}

func parseBook(payload []json.RawMessage) (*AggregatedBookData, error) {
	if isHeartbeat(payload) {
		return &AggregatedBookData{Heartbeat: true}, nil
	}

	rows, snapshot, err := bookRows(payload)
	if err != nil {
		return nil, err
	}

	data := &AggregatedBookData{Snapshot: snapshot, Levels: make([]domain.LevelUpdate, 0, len(rows))}
	for _, row := range rows {
		var u domain.LevelUpdate
		if err := decodeTuple(row, &u.Price, &u.Count, &u.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedBookMessage, err)
		}
		if u.Count < 0 {
			return nil, fmt.Errorf("%w: negative count %d", domain.ErrUnexpectedBookMessage, u.Count)
		}
		data.Levels = append(data.Levels, u)
	}
	return data, nil
}

type RawBookData struct {
	Heartbeat bool
	Snapshot  bool
	Orders    []domain.OrderUpdate
}

func parseRawBook(payload []json.RawMessage) (*RawBookData, error) {
	if isHeartbeat(payload) {
		return &RawBookData{Heartbeat: true}, nil
	}

	rows, snapshot, err := bookRows(payload)
	if err != nil {
		return nil, err
	}

	data := &RawBookData{Snapshot: snapshot, Orders: make([]domain.OrderUpdate, 0, len(rows))}
	for _, row := range rows {
		var u domain.OrderUpdate
		if err := decodeTuple(row, &u.OrderID, &u.Price, &u.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedBookMessage, err)
		}
		data.Orders = append(data.Orders, u)
	}
	return data, nil
}
