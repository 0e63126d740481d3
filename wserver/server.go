// Package wserver pushes key manager notifications to websocket clients.
package wserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/annchain/keymanager/common/goroutine"
	"github.com/annchain/keymanager/eventbus"
	"github.com/annchain/keymanager/keymanager"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	serverDefaultWSPath = "/ws"
	eventQueueSize      = 256
)

var defaultUpgrader = &websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Message is the JSON frame sent for every notification.
type Message struct {
	Type string         `json:"type"`
	Data eventbus.Event `json:"data"`
}

// Server defines parameters for running websocket server.
type Server struct {
	// Address for server to listen on
	Addr string

	// Path for websocket request, default "/ws".
	WSPath string

	wh      *websocketHandler
	hub     *hub
	engine  *gin.Engine
	server  *http.Server
	eventCh chan eventbus.Event
	quit    chan struct{}
}

// NewServer creates a new Server.
func NewServer(addr string) *Server {
	s := &Server{
		Addr:    addr,
		WSPath:  serverDefaultWSPath,
		hub:     newHub(),
		eventCh: make(chan eventbus.Event, eventQueueSize),
		quit:    make(chan struct{}),
	}
	s.wh = &websocketHandler{
		upgrader: defaultUpgrader,
		hub:      s.hub,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET(s.WSPath, s.wh.Handle)
	s.engine = engine

	s.server = &http.Server{
		Addr:    s.Addr,
		Handler: engine,
	}
	return s
}

// Serve listens on the TCP network address and handle websocket request.
func (s *Server) Serve() {
	if err := s.server.ListenAndServe(); err != nil {
		// cannot panic, because this probably is an intentional close
		logrus.WithError(err).Info("websocket server")
	}
}

func (s *Server) Start() {
	goroutine.New(s.Serve)
	goroutine.New(s.watchEvents)
}

func (s *Server) Stop() {
	close(s.quit)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Info("server Shutdown")
	}
	logrus.Info("websocket server exiting")
}

func (s *Server) GetBenchmarks() map[string]interface{} {
	return map[string]interface{}{
		"queue": len(s.eventCh),
		"conns": s.hub.Len(),
	}
}

func (s *Server) Name() string {
	return fmt.Sprintf("websocket Server at %s", s.Addr)
}

// HandlerDescription implements eventbus.EventHandler.
func (s *Server) HandlerDescription(ev eventbus.EventType) string {
	return "push " + keymanager.EventName(ev) + " to websocket subscribers"
}

// HandleEvent queues ev for delivery. It never blocks the caller: when the
// queue is full the notification is dropped for websocket clients, who can
// replay it from the journal.
func (s *Server) HandleEvent(ev eventbus.Event) {
	select {
	case s.eventCh <- ev:
	default:
		logrus.WithField("type", keymanager.EventName(ev.GetEventType())).Warn("websocket queue full, event dropped")
	}
}

// Push writes message to every connection subscribed to event and returns
// how many received it.
func (s *Server) Push(event string, message []byte) int {
	cnt := 0
	for _, conn := range s.hub.Subscribers(event) {
		if _, err := conn.Write(message); err != nil {
			logrus.WithError(err).WithField("conn", conn.GetID()).Debug("dropping websocket conn")
			s.hub.Remove(conn)
			continue
		}
		cnt++
	}
	return cnt
}

func (s *Server) watchEvents() {
	for {
		select {
		case ev := <-s.eventCh:
			s.publish(ev)
		case <-s.quit:
			return
		}
	}
}

func (s *Server) publish(ev eventbus.Event) {
	name := keymanager.EventName(ev.GetEventType())
	bs, err := json.Marshal(Message{Type: name, Data: ev})
	if err != nil {
		logrus.WithError(err).Error("failed to marshal ws message")
		return
	}
	cnt := s.Push(name, bs)
	logrus.WithField("type", name).WithField("clients", cnt).Debug("pushed to ws")
}
