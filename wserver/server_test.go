package wserver

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annchain/keymanager/keymanager"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, s *Server) (*websocket.Conn, func()) {
	ts := httptest.NewServer(s.engine)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + s.WSPath
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws, func() {
		ws.Close()
		ts.Close()
	}
}

func readMessage(t *testing.T, ws *websocket.Conn) Message {
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var raw struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	msg := Message{Type: raw.Type}
	switch raw.Type {
	case "CommitteeCreated":
		ev := &keymanager.CommitteeCreatedEvent{}
		require.NoError(t, json.Unmarshal(raw.Data, ev))
		msg.Data = ev
	case "CommitteesPruned":
		ev := &keymanager.CommitteesPrunedEvent{}
		require.NoError(t, json.Unmarshal(raw.Data, ev))
		msg.Data = ev
	}
	return msg
}

func TestServerPushesAllEventsByDefault(t *testing.T) {
	s := NewServer(":0")
	go s.watchEvents()
	defer close(s.quit)
	ws, closeFn := dial(t, s)
	defer closeFn()

	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, 3*time.Second, 10*time.Millisecond)

	s.HandleEvent(&keymanager.CommitteeCreatedEvent{Id: 3})
	s.HandleEvent(&keymanager.CommitteesPrunedEvent{FromId: 0, ToId: 2})

	msg := readMessage(t, ws)
	assert.Equal(t, "CommitteeCreated", msg.Type)
	assert.Equal(t, &keymanager.CommitteeCreatedEvent{Id: 3}, msg.Data)
	msg = readMessage(t, ws)
	assert.Equal(t, "CommitteesPruned", msg.Type)
	assert.Equal(t, &keymanager.CommitteesPrunedEvent{FromId: 0, ToId: 2}, msg.Data)
}

func TestServerHonorsSubscription(t *testing.T) {
	s := NewServer(":0")
	ws, closeFn := dial(t, s)
	defer closeFn()
	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, ws.WriteJSON(RegisterMessage{Event: "CommitteesPruned"}))
	require.Eventually(t, func() bool {
		return len(s.hub.Subscribers("CommitteeCreated")) == 0
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, s.Push("CommitteeCreated", []byte(`{"type":"CommitteeCreated"}`)))
	assert.Equal(t, 1, s.Push("CommitteesPruned", []byte(`{"type":"CommitteesPruned","data":{"from_id":1,"to_id":1}}`)))

	msg := readMessage(t, ws)
	assert.Equal(t, "CommitteesPruned", msg.Type)
	assert.Equal(t, &keymanager.CommitteesPrunedEvent{FromId: 1, ToId: 1}, msg.Data)
}

func TestServerDropsClosedConn(t *testing.T) {
	s := NewServer(":0")
	ws, closeFn := dial(t, s)
	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, 3*time.Second, 10*time.Millisecond)

	ws.Close()
	closeFn()
	require.Eventually(t, func() bool { return s.hub.Len() == 0 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.Push("CommitteeCreated", []byte("{}")))
}

func TestHandleEventDoesNotBlock(t *testing.T) {
	s := NewServer(":0")
	for i := 0; i < eventQueueSize+10; i++ {
		s.HandleEvent(&keymanager.CommitteeCreatedEvent{Id: uint64(i)})
	}
	assert.Len(t, s.eventCh, eventQueueSize)
	assert.Contains(t, s.HandlerDescription(keymanager.EventCommitteeCreated), "CommitteeCreated")
}
