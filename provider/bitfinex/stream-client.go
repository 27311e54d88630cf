package bitfinex

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/recws-org/recws"
)

const (
	DefaultWebsocketEndpoint = "wss://api-pub.bitfinex.com/ws/2"
	pingDelay                = 30 * time.Second
	handshakeTimeout         = 5 * time.Second
)

var ErrNotConnected = errors.New("websocket is not connected")

type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// BitfinexStreamClient owns the websocket. It remembers every subscription
// and replays them whenever the connection is re-established.
type BitfinexStreamClient struct {
	endpoint      string
	conn          *recws.RecConn
	subscriptions []SubscribeRequest
	mu            sync.Mutex
}

func NewBitfinexStreamClient(endpoint string) *BitfinexStreamClient {
	if endpoint == "" {
		endpoint = DefaultWebsocketEndpoint
	}
	return &BitfinexStreamClient{endpoint: endpoint}
}

// Connect dials the endpoint and blocks until the first connection is up.
func (c *BitfinexStreamClient) Connect() error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid endpoint %q: scheme must be ws or wss", c.endpoint)
	}

	conn := &recws.RecConn{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		KeepAliveTimeout: pingDelay,
		NonVerbose:       true,
	}
	// recws aborts the process when the handler fails, so failures are only logged.
	conn.SubscribeHandler = func() error {
		if err := c.replaySubscriptions(conn); err != nil {
			logger.Printf("failed to replay subscriptions: %v", err)
		}
		return nil
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	logger.Printf("connecting to %s", c.endpoint)
	conn.Dial(c.endpoint, nil)
	return nil
}

// Subscribe remembers the request and sends it right away when connected.
func (c *BitfinexStreamClient) Subscribe(req SubscribeRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.subscriptions {
		if s == req {
			return nil
		}
	}
	c.subscriptions = append(c.subscriptions, req)

	if c.conn == nil || !c.conn.IsConnected() {
		return nil
	}

	logger.Printf("subscribing to %s %s", req.Channel, req.Symbol)
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send subscribe msg for %s %s: %w", req.Channel, req.Symbol, err)
	}
	return nil
}

// Resubscribe drops the channel and subscribes to it again so the exchange
// sends a fresh snapshot under a new channel id.
func (c *BitfinexStreamClient) Resubscribe(ch *Channel) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}
	return resubscribe(conn, ch)
}

func resubscribe(w jsonWriter, ch *Channel) error {
	if err := w.WriteJSON(NewUnsubscribeRequest(ch.ID)); err != nil {
		return fmt.Errorf("failed to unsubscribe chanId=%d: %w", ch.ID, err)
	}
	if err := w.WriteJSON(ch.SubscribeRequest()); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", ch.Key(), err)
	}
	return nil
}

func (c *BitfinexStreamClient) ReadMessage() ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	_, msg, err := conn.ReadMessage()
	return msg, err
}

func (c *BitfinexStreamClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *BitfinexStreamClient) replaySubscriptions(w jsonWriter) error {
	c.mu.Lock()
	subscriptions := make([]SubscribeRequest, len(c.subscriptions))
	copy(subscriptions, c.subscriptions)
	c.mu.Unlock()

	var errs []error
	for _, req := range subscriptions {
		if err := w.WriteJSON(req); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", req.Channel, req.Symbol, err))
		}
	}
	return errors.Join(errs...)
}
