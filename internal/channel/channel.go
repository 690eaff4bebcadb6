// Package channel owns the persistent connection to the auction server: the
// connect/reconnect lifecycle, a typed event bus for inbound events, and the
// one outbound command (placing a bid).
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Kunal9s/auctionsync/internal/metrics"
)

var (
	// ErrNotConnected is returned by SubmitBid when the channel has no live
	// connection. Bids are never queued for later delivery.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrClosed is returned when the channel has been shut down.
	ErrClosed = errors.New("channel: closed")
)

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configures the channel.
type Options struct {
	URL string

	// ReconnectDelay is the fixed wait between dial attempts.
	ReconnectDelay time.Duration
	// ReconnectAttempts bounds consecutive failed dials before the channel
	// gives up and surfaces exhaustion to subscribers.
	ReconnectAttempts int

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	ReadTimeout      time.Duration
	MaxMessageSize   int64
}

// DefaultOptions returns the reference connection policy.
func DefaultOptions(url string) Options {
	return Options{
		URL:               url,
		ReconnectDelay:    1000 * time.Millisecond,
		ReconnectAttempts: 5,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		MaxMessageSize:    64 * 1024,
	}
}

// Channel is the resilient event channel over one websocket connection.
// Inbound events are dispatched to subscribers strictly in arrival order, on
// a single goroutine.
type Channel struct {
	opts Options
	bus  *bus

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	cancel context.CancelFunc

	// writeMu serializes all writes to the socket (bids and pings).
	writeMu sync.Mutex
}

func New(opts Options) *Channel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 1000 * time.Millisecond
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Channel{opts: opts, bus: newBus()}
}

// Subscribe registers a handler for an event name. Handlers for the same
// event run in registration order; each returned Subscription cancels only
// its own handler.
func (c *Channel) Subscribe(event string, h Handler) *Subscription {
	return c.bus.subscribe(event, h)
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection loop. It returns immediately; the outcome is
// surfaced to subscribers as connected / connection_exhausted events. Calling
// Connect while the loop is already running is a no-op.
func (c *Channel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateConnecting, StateConnected:
		return nil
	}

	c.state = StateConnecting
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
	return nil
}

// SubmitBid emits a BID_PLACED command for the given item. It hands the frame
// to the transport and returns: the eventual accept or reject arrives later
// as an independent inbound event, never as a reply to this call. When the
// channel is not connected the bid fails locally with ErrNotConnected and no
// transport I/O happens.
func (c *Channel) SubmitBid(itemID string, amount int64, bidder string) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(BidPlacedPayload{ItemID: itemID, BidAmount: amount, UserID: bidder})
	if err != nil {
		return fmt.Errorf("marshal bid: %w", err)
	}
	frame, err := json.Marshal(Envelope{Event: EventBidPlaced, Data: data})
	if err != nil {
		return fmt.Errorf("marshal bid envelope: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send bid: %w", err)
	}

	metrics.BidsSubmitted.Inc()
	log.Debug().
		Str("item_id", itemID).
		Int64("amount", amount).
		Str("bidder", bidder).
		Msg("bid submitted")
	return nil
}

// Close tears the channel down: pending reconnects are cancelled, the socket
// is closed and no further events are dispatched. Idempotent; the channel
// cannot be reused afterwards.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	metrics.Connected.Set(0)
	log.Info().Msg("channel closed")
	return nil
}

// run owns the dial/read/reconnect cycle. It is the only goroutine that
// dispatches events, which gives subscribers strict arrival ordering.
func (c *Channel) run(ctx context.Context) {
	attempts := 0
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempts++
			if attempts > c.opts.ReconnectAttempts {
				c.setState(StateDisconnected)
				log.Warn().
					Int("attempts", c.opts.ReconnectAttempts).
					Msg("reconnect attempts exhausted")
				c.bus.dispatch(EventConnectionExhausted, nil)
				return
			}

			log.Warn().Err(err).
				Int("attempt", attempts).
				Int("max_attempts", c.opts.ReconnectAttempts).
				Dur("retry_in", c.opts.ReconnectDelay).
				Msg("connect failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.ReconnectDelay):
			}
			continue
		}

		attempts = 0
		if !c.adoptConn(conn) {
			conn.Close()
			return
		}
		metrics.Connected.Set(1)
		log.Info().Str("url", c.opts.URL).Msg("connected to auction server")
		c.bus.dispatch(EventConnected, nil)

		pingStop := make(chan struct{})
		go c.pingLoop(conn, pingStop)
		err = c.readLoop(conn)
		close(pingStop)
		c.dropConn(conn)
		metrics.Connected.Set(0)

		if ctx.Err() != nil {
			return
		}

		metrics.Reconnects.Inc()
		c.setState(StateConnecting)
		log.Warn().Err(err).Msg("connection lost, reconnecting")
		c.bus.dispatch(EventDisconnected, nil)
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	return conn, nil
}

// adoptConn publishes the live connection. Returns false when the channel was
// closed while the dial was in flight.
func (c *Channel) adoptConn(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return false
	}
	c.conn = conn
	c.state = StateConnected
	return true
}

func (c *Channel) dropConn(conn *websocket.Conn) {
	conn.Close()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = s
	}
	c.mu.Unlock()
}

// readLoop reads frames until the connection drops, dispatching each inbound
// event in arrival order.
func (c *Channel) readLoop(conn *websocket.Conn) error {
	conn.SetReadLimit(c.opts.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("unexpected websocket close")
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Error().Err(err).Msg("malformed frame dropped")
			continue
		}
		if env.Event == "" {
			log.Debug().RawJSON("frame", message).Msg("frame without event name dropped")
			continue
		}

		metrics.EventsReceived.WithLabelValues(env.Event).Inc()
		c.bus.dispatch(env.Event, env.Data)
	}
}

func (c *Channel) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	interval := c.opts.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
