// Package wsclient is the station side of the OCPP 1.6J WebSocket
// session: it dials the CSMS, frames outgoing Calls with internal/ocpp's
// codec, and demultiplexes incoming CallResult/CallError frames back to
// the caller awaiting that messageId.
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charging-platform/cs-simulator/internal/logger"
	"github.com/charging-platform/cs-simulator/internal/ocpp"
)

// Config configures one station's WebSocket session.
type Config struct {
	HashId            string
	SupervisionUrl    string // base URL; the station's hashId is appended as a path segment
	HandshakeTimeout  time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	ReconnectInterval time.Duration
}

// DefaultConfig mirrors the keep-alive cadence the gateway's own
// WebSocket manager uses.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		PingInterval:      30 * time.Second,
		PongTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReconnectInterval: 5 * time.Second,
	}
}

type pendingCall struct {
	resultCh chan json.RawMessage
	errCh    chan error
}

// Client is a station.WSConnector and ocpp.Transport backed by one
// gorilla/websocket connection. Open dials the CSMS; Call places one
// OCPP request and blocks until its CallResult/CallError arrives or ctx
// is cancelled.
type Client struct {
	cfg    Config
	codec  *ocpp.Codec
	dialer *websocket.Dialer
	log    *logger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]pendingCall
	closed  bool

	readDone chan struct{}
}

// New builds a Client for one station; Open must be called before Call.
func New(cfg Config, log *logger.Logger) *Client {
	return &Client{
		cfg:   cfg,
		codec: ocpp.NewCodec(),
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			Subprotocols:     []string{"ocpp1.6"},
		},
		log:     log,
		pending: make(map[string]pendingCall),
	}
}

// Open dials the station's supervision URL and starts the read and
// keep-alive-ping loops. It satisfies station.WSConnector, returning
// itself as the bound ocpp.Transport.
func (c *Client) Open(ctx context.Context) (ocpp.Transport, error) {
	url := fmt.Sprintf("%s/%s", c.cfg.SupervisionUrl, c.cfg.HashId)
	conn, _, err := c.dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("station %s: failed to dial %s: %w", c.cfg.HashId, url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.readDone = make(chan struct{})
	c.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.PingInterval + c.cfg.PongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PingInterval + c.cfg.PongTimeout))

	go c.readLoop(conn, c.readDone)
	go c.pingLoop(conn, c.readDone)

	return c, nil
}

// Close terminates the WebSocket session and fails any in-flight Call
// with a connection-closed error.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	pending := c.pending
	c.pending = make(map[string]pendingCall)
	c.mu.Unlock()

	for _, p := range pending {
		p.errCh <- fmt.Errorf("station %s: connection closed", c.cfg.HashId)
	}
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Call implements ocpp.Transport: frames and sends a Call, then blocks
// for its matching CallResult/CallError or for ctx to end.
func (c *Client) Call(ctx context.Context, messageID string, action ocpp.Action, payload interface{}) (json.RawMessage, error) {
	data, err := c.codec.EncodeCall(messageID, action, payload)
	if err != nil {
		return nil, err
	}

	resultCh := make(chan json.RawMessage, 1)
	errCh := make(chan error, 1)

	c.mu.Lock()
	if c.closed || c.conn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("station %s: no open WebSocket session", c.cfg.HashId)
	}
	c.pending[messageID] = pendingCall{resultCh: resultCh, errCh: errCh}
	conn := c.conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, messageID)
		c.mu.Unlock()
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("station %s: failed to send %s: %w", c.cfg.HashId, action, err)
	}

	select {
	case raw := <-resultCh:
		return raw, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.failAllPending(fmt.Errorf("station %s: read failed: %w", c.cfg.HashId, err))
			return
		}

		frame, err := c.codec.Decode(data)
		if err != nil {
			c.logf("station %s: failed to decode frame: %v", c.cfg.HashId, err)
			continue
		}

		switch frame.Type {
		case ocpp.CallResult:
			c.deliver(frame.MessageID, frame.Payload, nil)
		case ocpp.CallError:
			c.deliver(frame.MessageID, nil, &ocpp.OCPPError{
				Code:    frame.ErrorCode,
				Message: frame.ErrorDescription,
				Details: frame.ErrorDetails,
			})
		default:
			// Server-initiated Calls (RemoteStartTransaction, Reset, ...)
			// are out of scope for this simulator's outbound-only Request
			// Service; silently acknowledged would require a CallResult
			// handler table this package doesn't implement.
			c.logf("station %s: ignoring incoming Call %s", c.cfg.HashId, frame.Action)
		}
	}
}

func (c *Client) deliver(messageID string, payload json.RawMessage, err error) {
	c.mu.Lock()
	p, ok := c.pending[messageID]
	delete(c.pending, messageID)
	c.mu.Unlock()
	if !ok {
		return
	}
	if err != nil {
		p.errCh <- err
		return
	}
	p.resultCh <- payload
}

func (c *Client) failAllPending(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]pendingCall)
	c.mu.Unlock()
	for _, p := range pending {
		p.errCh <- err
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logf("station %s: ping failed: %v", c.cfg.HashId, err)
				return
			}
		}
	}
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Infof(format, args...)
	}
}
