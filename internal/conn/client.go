package conn

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client wraps one physical WebSocket. It has no reconnect logic of its own;
// it reads frames into the Manager's shared channel and reports the first
// read failure on errs. The Manager decides what the failure means.
type client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu      sync.Mutex
	writeTimeout time.Duration

	frames chan<- Frame
	errs   chan error

	done      chan struct{}
	closeOnce sync.Once
}

// dialClient opens a socket and starts its read and keepalive loops under wg.
func dialClient(ctx context.Context, cfg Config, frames chan<- Frame, wg *sync.WaitGroup, logger *slog.Logger) (*client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	c := &client{
		conn:         conn,
		logger:       logger,
		writeTimeout: cfg.WriteTimeout,
		frames:       frames,
		errs:         make(chan error, 1),
		done:         make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		return nil
	})

	wg.Add(2)
	go c.readLoop(wg)
	go c.pingLoop(wg, cfg.PingInterval)

	return c, nil
}

// send writes one frame, serialized against concurrent writers.
func (c *client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// closeNormal sends the normal-closure frame before tearing down. Used only
// on deliberate disconnects.
func (c *client) closeNormal() {
	c.writeMu.Lock()
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, CloseReason),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()
	c.close()
}

// close tears the socket down without the closing handshake.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readLoop pushes inbound frames to the shared channel until the socket
// dies. Exactly one error is reported unless the close was deliberate.
func (c *client) readLoop(wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		_, data, err := c.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-c.done:
				// Deliberate close; nobody is listening for the error.
			default:
				c.errs <- err
			}
			return
		}

		select {
		case c.frames <- Frame{Data: data, ReceivedAt: receivedAt}:
		case <-c.done:
			return
		default:
			c.logger.Warn("frame buffer full, dropping frame")
		}
	}
}

// pingLoop keeps the connection alive. A missed pong trips the read
// deadline, which surfaces through readLoop as an unexpected close.
func (c *client) pingLoop(wg *sync.WaitGroup, interval time.Duration) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.writeTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}
