package wserver

import (
	"errors"
	"io"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var ErrConnClosed = errors.New("conn is closed, can't be written")

// Conn wraps websocket.Conn with Conn. It defines to listen and read
// data from Conn.
type Conn struct {
	Conn *websocket.Conn

	AfterReadFunc   func(messageType int, r io.Reader)
	BeforeCloseFunc func()

	// events the client subscribed to. Empty means every event.
	events mapset.Set

	once    sync.Once
	writeMu sync.Mutex
	id      string
	stopCh  chan struct{}
}

// NewConn wraps conn.
func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{
		Conn:   conn,
		events: mapset.NewSet(),
		stopCh: make(chan struct{}),
	}
}

// Write write p to the websocket connection. The error returned will always
// be nil if success.
func (c *Conn) Write(p []byte) (n int, err error) {
	select {
	case <-c.stopCh:
		return 0, ErrConnClosed
	default:
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = c.Conn.WriteMessage(websocket.TextMessage, p)
		if err != nil {
			return 0, err
		}
		return len(p), nil
	}
}

// GetID returns the id generated using UUID algorithm.
func (c *Conn) GetID() string {
	c.once.Do(func() {
		c.id = uuid.New().String()
	})
	return c.id
}

func (c *Conn) Subscribe(event string) {
	c.events.Add(event)
}

// Wants reports whether event should be pushed to this connection.
func (c *Conn) Wants(event string) bool {
	return c.events.Cardinality() == 0 || c.events.Contains(event)
}

// Listen listens for receive data from websocket connection. It blocks
// until websocket connection is closed.
func (c *Conn) Listen() {
	c.Conn.SetCloseHandler(func(code int, text string) error {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Debug("close websocket conn")
		}
		message := websocket.FormatCloseMessage(code, "")
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = c.Conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		return nil
	})

	// Keeps reading from Conn util get error.
ReadLoop:
	for {
		select {
		case <-c.stopCh:
			break ReadLoop
		default:
			messageType, r, err := c.Conn.NextReader()
			if err != nil {
				logrus.WithError(err).WithField("conn", c.GetID()).Trace("websocket read loop ends")
				break ReadLoop
			}
			if c.AfterReadFunc != nil {
				c.AfterReadFunc(messageType, r)
			}
		}
	}
	if c.BeforeCloseFunc != nil {
		c.BeforeCloseFunc()
	}
}

// Close close the connection.
func (c *Conn) Close() error {
	select {
	case <-c.stopCh:
		return errors.New("conn already been closed")
	default:
		close(c.stopCh)
		return c.Conn.Close()
	}
}

// hub holds every live connection by id.
type hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func newHub() *hub {
	return &hub{conns: make(map[string]*Conn)}
}

func (h *hub) Add(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.GetID()] = conn
}

func (h *hub) Remove(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn.GetID())
}

func (h *hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Subscribers returns connections that want event.
func (h *hub) Subscribers(event string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var ret []*Conn
	for _, c := range h.conns {
		if c.Wants(event) {
			ret = append(ret, c)
		}
	}
	return ret
}
