package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHub_LocalDelivery(t *testing.T) {
	hub := NewHub(nil, 2)

	t.Run("연결 없으면 ErrNotConnected", func(t *testing.T) {
		err := hub.Push("nobody", &domain.LiveEvent{Type: domain.LiveEventNotification})
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("모든 연결에 전달", func(t *testing.T) {
		c1 := NewClient(hub, nil, "u1")
		c2 := NewClient(hub, nil, "u1")
		hub.Register(c1)
		hub.Register(c2)
		assert.Equal(t, 2, hub.Connected("u1"))

		require.NoError(t, hub.Push("u1", &domain.LiveEvent{Type: domain.LiveEventPriceMoved, Data: map[string]string{"lowest_price": "430"}}))

		for _, c := range []*Client{c1, c2} {
			ev := decodeEvent(t, <-c.send)
			assert.Equal(t, "price_moved", ev["type"])
		}
		hub.Unregister(c1)
		hub.Unregister(c2)
	})

	t.Run("메일박스가 차면 ErrQueueFull, 블로킹 없음", func(t *testing.T) {
		c := NewClient(hub, nil, "slow")
		hub.Register(c)

		ev := &domain.LiveEvent{Type: domain.LiveEventNotification}
		require.NoError(t, hub.Push("slow", ev))
		require.NoError(t, hub.Push("slow", ev))

		done := make(chan error, 1)
		go func() { done <- hub.Push("slow", ev) }()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrQueueFull)
		case <-time.After(time.Second):
			t.Fatal("push blocked on a full mailbox")
		}
		assert.Len(t, c.send, 2)
	})

	t.Run("Unregister 중복 호출 안전", func(t *testing.T) {
		c := NewClient(hub, nil, "u2")
		hub.Register(c)
		hub.Unregister(c)
		hub.Unregister(c)

		_, ok := <-c.send
		assert.False(t, ok)
		assert.Zero(t, hub.Connected("u2"))
	})
}

func TestHub_CrossInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	newRedis := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		return c
	}

	hubA := NewHub(newRedis(), 8)
	hubB := NewHub(newRedis(), 8)
	go hubA.Run()
	go hubB.Run()
	t.Cleanup(hubA.Stop)
	t.Cleanup(hubB.Stop)
	<-hubA.Subscribed()
	<-hubB.Subscribed()

	remote := NewClient(hubB, nil, "buyer")
	hubB.Register(remote)
	local := NewClient(hubA, nil, "seller")
	hubA.Register(local)

	t.Run("다른 인스턴스 연결로 전달", func(t *testing.T) {
		require.NoError(t, hubA.Push("buyer", &domain.LiveEvent{Type: domain.LiveEventNewMessage}))
		require.Eventually(t, func() bool { return len(remote.send) == 1 }, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, "new_message", decodeEvent(t, <-remote.send)["type"])
	})

	t.Run("자기 인스턴스에는 한 번만 전달", func(t *testing.T) {
		require.NoError(t, hubA.Push("seller", &domain.LiveEvent{Type: domain.LiveEventNotification}))
		time.Sleep(100 * time.Millisecond)
		assert.Len(t, local.send, 1)
	})
}

func TestClient_WebSocketRoundTrip(t *testing.T) {
	hub := NewHub(nil, 4)
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, "u1")
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
		close(registered)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	<-registered

	require.NoError(t, hub.Push("u1", &domain.LiveEvent{Type: domain.LiveEventUnreadCount, Data: map[string]int{"total_unread": 3}}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	ev := decodeEvent(t, data)
	assert.Equal(t, "unread_count", ev["type"])

	// 클라이언트가 끊으면 허브에서 제거
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connected("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
