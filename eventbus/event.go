package eventbus

import (
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

type EventType uint8

type Event interface {
	GetEventType() EventType
}

type EventHandler interface {
	HandlerDescription(EventType) string
	HandleEvent(Event)
	Name() string
}

type EventHandlerRegisterInfo struct {
	Type    EventType
	Name    string
	Handler EventHandler
}

// DefaultEventBus delivers each event synchronously to every handler
// registered for its type, in registration order.
type DefaultEventBus struct {
	ID         int
	knownNames map[EventType]string
	listeners  map[EventType][]EventHandler
	inited     bool       // do not use Mutex after initialization. It will downgrade performance
	mu         sync.Mutex // use only during initialization
}

func (e *DefaultEventBus) InitDefault() {
	e.listeners = make(map[EventType][]EventHandler)
	e.knownNames = make(map[EventType]string)
}

func (e *DefaultEventBus) ListenTo(regInfo EventHandlerRegisterInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inited {
		panic("bad code. register listeners before building the eventbus")
	}
	e.listeners[regInfo.Type] = append(e.listeners[regInfo.Type], regInfo.Handler)
	e.knownNames[regInfo.Type] = regInfo.Name
}

// ListenToAll registers handler for every type in types, naming each type with nameOf.
func (e *DefaultEventBus) ListenToAll(types []EventType, nameOf func(EventType) string, handler EventHandler) {
	for _, t := range types {
		e.ListenTo(EventHandlerRegisterInfo{
			Type:    t,
			Name:    nameOf(t),
			Handler: handler,
		})
	}
}

// Eventbus must be built before events are to be received.
// This is an commit from programmer, showing that all modules are inited and well-prepared to receive events.
func (e *DefaultEventBus) Build() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inited = true
}

func (e *DefaultEventBus) Route(ev Event) {
	if !e.inited {
		panic("bad code. build eventbus before routing")
	}
	name, ok := e.knownNames[ev.GetEventType()]
	if !ok {
		name = strconv.Itoa(int(ev.GetEventType()))
	}
	logrus.WithField("me", e.ID).WithField("type", name).WithField("v", ev).Debug("router received event")
	handlers, ok := e.listeners[ev.GetEventType()]
	if !ok {
		logrus.WithField("me", e.ID).WithField("type", name).WithField("typecode", ev.GetEventType()).Trace("no event handler to handle event type")
		return
	}
	for _, handler := range handlers {
		logrus.WithFields(logrus.Fields{
			"me":      e.ID,
			"handler": handler.Name(),
			"desc":    handler.HandlerDescription(ev.GetEventType()),
		}).Trace("handling")
		handler.HandleEvent(ev)
	}
	logrus.WithField("me", e.ID).WithField("type", name).WithField("v", ev).Trace("router handled event")
}
