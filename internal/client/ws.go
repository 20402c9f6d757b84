package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	defaultBaseDelay = 1 * time.Second
	defaultMaxDelay  = 30 * time.Second
	writeTimeout     = 10 * time.Second
	pongTimeout      = 60 * time.Second
	pingInterval     = 30 * time.Second

	// maxPending bounds the buffered host-control queue. A host that
	// produces more than this while offline is doing something odd.
	maxPending = 32
)

// ErrNotConnected is returned by Emit for events that must not be
// buffered while the connection is down.
var ErrNotConnected = fmt.Errorf("not connected")

// bufferable events are host control actions: losing them silently would
// wedge the whole game, so they are queued and flushed on reconnect.
// Answer submissions are deliberately excluded; replaying an answer after
// its question window has passed is worse than dropping it.
func bufferable(event string) bool {
	switch event {
	case EventAddQuestion, EventStartGame, EventNextQuestion:
		return true
	}
	return false
}

// WSClient manages the WebSocket connection to the QuizNova server.
type WSClient struct {
	url       string
	baseDelay time.Duration
	maxDelay  time.Duration

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes (ping, emit, flush)
	conn    *websocket.Conn
	pending [][]byte           // buffered host-control frames
	pingCtx context.CancelFunc // cancels the active ping goroutine
}

// Option tunes a WSClient.
type Option func(*WSClient)

// WithBackoff overrides the reconnect backoff window.
func WithBackoff(base, max time.Duration) Option {
	return func(c *WSClient) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

// NewWSClient creates a client that connects to the given WebSocket URL.
func NewWSClient(url string, opts ...Option) *WSClient {
	c := &WSClient{url: url, baseDelay: defaultBaseDelay, maxDelay: defaultMaxDelay}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Bubble Tea messages ---

// WSConnectedMsg is sent when the WebSocket connects. On anything but the
// first connect it doubles as the reconnected signal that drives the
// rejoin protocol.
type WSConnectedMsg struct{}

// WSDisconnectedMsg is sent when the connection drops.
type WSDisconnectedMsg struct{ Err error }

// WSEventMsg delivers one decoded server event.
type WSEventMsg struct{ Event ServerEvent }

// Listen returns a Bubble Tea command that connects and reports
// WSConnectedMsg. It retries with exponential backoff until the context
// is cancelled. Buffered host-control frames are flushed once connected.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := c.baseDelay
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
			if err != nil {
				log.Printf("ws dial error: %v (retry in %v)", err, delay)
				time.Sleep(delay)
				delay = min(delay*2, c.maxDelay)
				continue
			}

			// Cancel any previous ping goroutine.
			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.pingCtx = pingCancel
			queued := c.pending
			c.pending = nil
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			for _, frame := range queued {
				if err := c.write(conn, frame); err != nil {
					log.Printf("ws flush error: %v", err)
					break
				}
			}

			return WSConnectedMsg{}
		}
	}
}

// ReadLoop returns a Bubble Tea command that reads frames until one
// decodes into a server event, then delivers it. It should be re-armed
// after each WSEventMsg. Frames arrive in server-emission order; nothing
// here reorders them.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return WSDisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				return WSDisconnectedMsg{Err: err}
			}

			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				log.Printf("ws: dropping unparseable frame: %v", err)
				continue
			}

			ev, err := DecodeServerEvent(env)
			if err != nil {
				log.Printf("ws: dropping frame: %v", err)
				continue
			}
			return WSEventMsg{Event: ev}
		}
	}
}

// Emit sends one event to the server. While disconnected, host control
// events are buffered for the next connect and everything else fails
// with ErrNotConnected.
func (c *WSClient) Emit(event string, payload any) error {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", event, err)
		}
		env.Data = data
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		if bufferable(event) && len(c.pending) < maxPending {
			c.pending = append(c.pending, frame)
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", event, ErrNotConnected)
	}
	c.mu.Unlock()

	return c.write(conn, frame)
}

func (c *WSClient) write(conn *websocket.Conn, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// pingLoop sends periodic pings on the given connection. It exits when
// the context is cancelled or the connection changes.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Connected reports whether a connection is currently established.
func (c *WSClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
