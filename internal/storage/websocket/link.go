package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/skyroute/flightplanner/pkg/streaming"
)

const (
	outboxSize    = 256
	ackBufferSize = 16
	redialLimit   = 10
	redialBase    = time.Second
	redialCeiling = 30 * time.Second
	writeTimeout  = 10 * time.Second
	pingInterval  = 25 * time.Second
	ackTimeout    = 10 * time.Second
)

var errLinkClosed = errors.New("websocket link closed")

// link owns one live display connection. A single goroutine writes to the
// socket; a broken socket is redialed in the background and the most recent
// plan_update is resent before anything else.
type link struct {
	endpoint string
	logger   *slog.Logger

	outbox chan []byte
	acks   chan streaming.AckMessage
	stop   chan struct{}

	mu       sync.Mutex
	sock     *ws.Conn
	shutdown bool
	latest   []byte
}

func newLink(logger *slog.Logger) *link {
	return &link{
		logger: logger,
		outbox: make(chan []byte, outboxSize),
		acks:   make(chan streaming.AckMessage, ackBufferSize),
		stop:   make(chan struct{}),
	}
}

// endpointURL appends the shared secret as a query parameter.
func endpointURL(raw, secret string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid websocket URL: %w", err)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (l *link) open(raw, secret string) error {
	endpoint, err := endpointURL(raw, secret)
	if err != nil {
		return err
	}
	l.endpoint = endpoint

	sock, err := l.dial()
	if err != nil {
		return err
	}
	l.attach(sock)
	return nil
}

func (l *link) dial() (*ws.Conn, error) {
	sock, _, err := ws.DefaultDialer.Dial(l.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return sock, nil
}

func (l *link) attach(sock *ws.Conn) {
	l.mu.Lock()
	l.sock = sock
	l.mu.Unlock()
	go l.pump(sock)
	go l.listen(sock)
}

func writeFrame(sock *ws.Conn, data []byte) error {
	if err := sock.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return sock.WriteMessage(ws.TextMessage, data)
}

// pump drains the outbox and keeps the socket alive with pings.
func (l *link) pump(sock *ws.Conn) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-l.stop:
			return
		case <-ping.C:
			err = sock.WriteControl(ws.PingMessage, nil, time.Now().Add(writeTimeout))
		case data := <-l.outbox:
			err = writeFrame(sock, data)
		}
		if err != nil {
			l.logger.Warn("WebSocket write error", "error", err)
			go l.redial(sock)
			return
		}
	}
}

// listen forwards acks and ignores every other server message.
func (l *link) listen(sock *ws.Conn) {
	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			if l.stopped() {
				return
			}
			l.logger.Warn("WebSocket read error", "error", err)
			go l.redial(sock)
			return
		}

		var ack streaming.AckMessage
		if json.Unmarshal(raw, &ack) != nil || ack.Type != streaming.TypeAck {
			l.logger.Debug("Ignoring server message", "raw", string(raw))
			continue
		}
		select {
		case l.acks <- ack:
		default:
			l.logger.Debug("Ack buffer full, dropping", "for", ack.For)
		}
	}
}

func (l *link) stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

func nextDelay(d time.Duration) time.Duration {
	return min(d*2, redialCeiling)
}

// redial replaces a dead socket. pump and listen both report the same
// failure; the caller holding a socket that is no longer current does nothing.
func (l *link) redial(dead *ws.Conn) {
	l.mu.Lock()
	if l.shutdown || l.sock != dead {
		l.mu.Unlock()
		return
	}
	_ = dead.Close()
	l.sock = nil
	l.mu.Unlock()

	delay := redialBase
	for attempt := 1; attempt <= redialLimit; attempt++ {
		l.logger.Info("Redialing plan display", "attempt", attempt, "delay", delay)
		select {
		case <-l.stop:
			return
		case <-time.After(delay):
		}
		delay = nextDelay(delay)

		sock, err := l.dial()
		if err != nil {
			l.logger.Warn("Redial failed", "attempt", attempt, "error", err)
			continue
		}

		l.mu.Lock()
		if l.shutdown {
			l.mu.Unlock()
			_ = sock.Close()
			return
		}
		latest := l.latest
		l.mu.Unlock()

		if latest != nil {
			if err := writeFrame(sock, latest); err != nil {
				l.logger.Warn("Could not resend latest plan", "error", err)
				_ = sock.Close()
				continue
			}
		}

		l.logger.Info("Plan display reconnected", "attempt", attempt)
		l.attach(sock)
		return
	}

	l.logger.Error("Giving up on plan display", "attempts", redialLimit)
}

// keepLatest records a plan_update for resending after a redial.
func (l *link) keepLatest(data []byte) {
	l.mu.Lock()
	l.latest = data
	l.mu.Unlock()
}

// enqueue never blocks; a full outbox drops the message.
func (l *link) enqueue(data []byte) bool {
	if l.stopped() {
		return false
	}
	select {
	case l.outbox <- data:
		return true
	default:
		l.logger.Warn("WebSocket outbox full, dropping message")
		return false
	}
}

// request enqueues data and waits for the server to ack msgType.
func (l *link) request(data []byte, msgType string, timeout time.Duration) error {
	if l.stopped() {
		return fmt.Errorf("%s: %w", msgType, errLinkClosed)
	}
	if !l.enqueue(data) {
		return fmt.Errorf("outbox full, %q not sent", msgType)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case ack := <-l.acks:
			if ack.For == msgType {
				return nil
			}
		case <-deadline.C:
			return fmt.Errorf("timeout waiting for ack of %q", msgType)
		case <-l.stop:
			return fmt.Errorf("%s: %w", msgType, errLinkClosed)
		}
	}
}

// close sends a normal close frame and stops all goroutines. Repeated calls
// are no-ops.
func (l *link) close() error {
	l.mu.Lock()
	if l.shutdown {
		l.mu.Unlock()
		return nil
	}
	l.shutdown = true
	close(l.stop)
	sock := l.sock
	l.sock = nil
	l.mu.Unlock()

	if sock == nil {
		return nil
	}
	_ = sock.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return sock.Close()
}
