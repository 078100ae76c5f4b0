// pkg/rtclient/dialer.go
package rtclient

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketDialer dials the server over a gorilla websocket. A dial
// that does not complete its handshake within HandshakeTimeout fails
// and counts against the reconnect budget.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	// Header carries cookies or auth headers for the upgrade request.
	Header http.Header
}

type websocketConn struct {
	ws *websocket.Conn
}

// DialContext implements Dialer.
func (d *WebsocketDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
	}
	if dialer.HandshakeTimeout <= 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}

	ws, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &websocketConn{ws: ws}, nil
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *websocketConn) WriteMessage(data []byte) error {
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *websocketConn) Close() error {
	// Best-effort close handshake before tearing the TCP link down.
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// IsCleanClose reports whether the read error was a normal closure or
// going-away close frame.
func (c *websocketConn) IsCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
