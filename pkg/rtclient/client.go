// pkg/rtclient/client.go

// Package rtclient is a client for the realtime websocket endpoint.
// It maintains a single logical connection: dialing, announcing the
// user, joining project rooms, and transparently reconnecting with
// exponential backoff when the link drops uncleanly.
package rtclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// State is the connection lifecycle state.
type State string

const (
	StateConnecting     State = "connecting"
	StateOpen           State = "open"
	StateClosedClean    State = "closed-clean"
	StateClosedRetrying State = "closed-retrying"
	StateFailed         State = "failed"
)

// ErrRetriesExhausted is returned by Run when the reconnect budget is
// spent without reestablishing the connection.
var ErrRetriesExhausted = errors.New("rtclient: reconnect attempts exhausted")

// ErrNotConnected is returned by send operations while the link is down.
var ErrNotConnected = errors.New("rtclient: not connected")

// Conn is the minimal transport surface the client needs. The gorilla
// adapter in dialer.go is the production implementation; tests supply
// fakes.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer establishes transport connections.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// CleanCloser lets a transport report whether a read error was a clean
// close (normal closure or going away). A clean close stops the
// reconnect loop; anything else triggers backoff.
type CleanCloser interface {
	IsCleanClose(err error) bool
}

// Options configures a Client.
type Options struct {
	URL    string
	UserID string
	Dialer Dialer
	Log    *zap.Logger

	// OnFrame is invoked for every server frame, in read-loop order.
	OnFrame func(Frame)

	// Backoff tuning. Zero values get defaults.
	InitialInterval time.Duration // default 500ms
	MaxInterval     time.Duration // default 30s
	MaxAttempts     int           // consecutive failed dials before giving up; default 10
}

const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
	defaultMaxAttempts     = 10
)

// Client is a reconnecting realtime connection.
type Client struct {
	opts Options

	mu     sync.Mutex
	state  State
	conn   Conn
	rooms  map[string]struct{}
	closed bool
}

// New validates options and builds a Client. Run must be called to
// start the connection.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("rtclient: URL is required")
	}
	if opts.Dialer == nil {
		return nil, errors.New("rtclient: Dialer is required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = defaultInitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = defaultMaxInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Client{
		opts:  opts,
		state: StateConnecting,
		rooms: make(map[string]struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// newBackOff builds the deterministic retry policy: delays double from
// InitialInterval and are capped at MaxInterval. No jitter, so clients
// of the same build behave predictably in tests and in the field.
func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = c.opts.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Run connects and services the link until the context is canceled,
// the server closes cleanly, Close is called, or the reconnect budget
// is exhausted. A successful session resets the retry counter.
func (c *Client) Run(ctx context.Context) error {
	bo := c.newBackOff()
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			c.setState(StateClosedClean)
			return err
		}
		if c.isClosed() {
			c.setState(StateClosedClean)
			return nil
		}

		c.setState(StateConnecting)
		conn, err := c.opts.Dialer.DialContext(ctx, c.opts.URL)
		if err != nil {
			attempts++
			c.opts.Log.Warn("realtime dial failed",
				zap.Int("attempt", attempts),
				zap.Error(err))
			if attempts >= c.opts.MaxAttempts {
				c.setState(StateFailed)
				return errors.Join(ErrRetriesExhausted, err)
			}
			c.setState(StateClosedRetrying)
			if err := c.sleep(ctx, bo.NextBackOff()); err != nil {
				c.setState(StateClosedClean)
				return err
			}
			continue
		}

		c.attach(conn)
		if err := c.announce(); err != nil {
			// The link died during the handshake frames; treat it like
			// a failed dial.
			c.detach()
			attempts++
			if attempts >= c.opts.MaxAttempts {
				c.setState(StateFailed)
				return errors.Join(ErrRetriesExhausted, err)
			}
			c.setState(StateClosedRetrying)
			if err := c.sleep(ctx, bo.NextBackOff()); err != nil {
				c.setState(StateClosedClean)
				return err
			}
			continue
		}

		c.setState(StateOpen)
		attempts = 0
		bo.Reset()

		err = c.readLoop(conn)
		c.detach()

		if c.isClosed() || ctx.Err() != nil {
			c.setState(StateClosedClean)
			return ctx.Err()
		}
		if c.isCleanClose(conn, err) {
			c.opts.Log.Info("realtime connection closed by server")
			c.setState(StateClosedClean)
			return nil
		}

		c.opts.Log.Warn("realtime connection lost, reconnecting", zap.Error(err))
		c.setState(StateClosedRetrying)
		attempts++
		if attempts >= c.opts.MaxAttempts {
			c.setState(StateFailed)
			return errors.Join(ErrRetriesExhausted, err)
		}
		if err := c.sleep(ctx, bo.NextBackOff()); err != nil {
			c.setState(StateClosedClean)
			return err
		}
	}
}

// JoinProject subscribes to a project room. The subscription is
// replayed after every reconnect.
func (c *Client) JoinProject(projectID string) error {
	c.mu.Lock()
	c.rooms[projectID] = struct{}{}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		// Joined while offline; the reconnect replay will send it.
		return nil
	}
	f, err := c.joinFrame(projectID)
	if err != nil {
		return err
	}
	return c.writeFrame(conn, f)
}

// joinFrame builds a join-project frame carrying the caller identity
// the server's membership check requires.
func (c *Client) joinFrame(projectID string) (Frame, error) {
	data, err := json.Marshal(map[string]string{"userId": c.opts.UserID})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: TypeJoinProject, ProjectID: projectID, Data: data}, nil
}

// SendChat sends a chat message to a project room.
func (c *Client) SendChat(projectID, content string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(map[string]string{
		"senderId": c.opts.UserID,
		"content":  content,
	})
	if err != nil {
		return err
	}
	return c.writeFrame(conn, Frame{Type: TypeChatMessage, ProjectID: projectID, Data: data})
}

// Close shuts the connection down for good. Run returns nil and no
// reconnect is attempted.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// announce sends the identity frame and replays room subscriptions.
func (c *Client) announce() error {
	c.mu.Lock()
	conn := c.conn
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	if c.opts.UserID != "" {
		data, err := json.Marshal(map[string]string{"userId": c.opts.UserID})
		if err != nil {
			return err
		}
		if err := c.writeFrame(conn, Frame{Type: TypeUserConnect, Data: data}); err != nil {
			return err
		}
	}
	for _, id := range rooms {
		f, err := c.joinFrame(id)
		if err != nil {
			return err
		}
		if err := c.writeFrame(conn, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) readLoop(conn Conn) error {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f, err := decodeFrame(raw)
		if err != nil {
			c.opts.Log.Debug("dropping malformed frame", zap.Error(err))
			continue
		}
		if c.opts.OnFrame != nil {
			c.opts.OnFrame(f)
		}
	}
}

func (c *Client) writeFrame(conn Conn, f Frame) error {
	data, err := encodeFrame(f)
	if err != nil {
		return err
	}
	return conn.WriteMessage(data)
}

func (c *Client) isCleanClose(conn Conn, err error) bool {
	if cc, ok := conn.(CleanCloser); ok {
		return cc.IsCleanClose(err)
	}
	return false
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) attach(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) detach() {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
