package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisPubSubChannel = "negotiation:live"

// DefaultQueueSize per-connection mailbox capacity
const DefaultQueueSize = 64

var (
	// ErrNotConnected no live connection for the user on any reachable instance
	ErrNotConnected = errors.New("user has no live connection")
	// ErrQueueFull every connection of the user has a full mailbox
	ErrQueueFull = errors.New("live queue full")
)

// Hub tracks live connections per user. Push never blocks: each connection
// owns a bounded mailbox drained by its own write goroutine, and a full
// mailbox drops the event for that connection only.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	queueSize   int
	instanceID  string
	redisClient *redis.Client
	subscribed  chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewHub redisClient may be nil for a single instance
func NewHub(redisClient *redis.Client, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]struct{}),
		queueSize:   queueSize,
		instanceID:  uuid.New().String(),
		redisClient: redisClient,
		subscribed:  make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

// Unregister removes the client and closes its mailbox. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
}

// Connected reports how many live connections userID has on this instance
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Push delivers to local connections and publishes for other instances.
func (h *Hub) Push(userID string, event *domain.LiveEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	localErr := h.deliverLocal(userID, data)
	if h.redisClient == nil {
		return localErr
	}

	msg, err := json.Marshal(&redisMessage{Origin: h.instanceID, UserID: userID, Event: data})
	if err != nil {
		return err
	}
	if err := h.redisClient.Publish(h.ctx, redisPubSubChannel, msg).Err(); err != nil {
		if localErr != nil {
			return errors.Join(localErr, err)
		}
		return nil
	}
	// 다른 인스턴스에 연결되어 있을 수 있음
	if errors.Is(localErr, ErrNotConnected) {
		return nil
	}
	return localErr
}

func (h *Hub) deliverLocal(userID string, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.clients[userID]
	if len(clients) == 0 {
		return ErrNotConnected
	}
	delivered := 0
	for client := range clients {
		select {
		case client.send <- data:
			delivered++
		default:
			pkglogger.GetLogger().Warn().Str("user_id", userID).Msg("live mailbox full, event dropped")
		}
	}
	if delivered == 0 {
		return ErrQueueFull
	}
	return nil
}

type redisMessage struct {
	Origin string          `json:"origin"`
	UserID string          `json:"user_id"`
	Event  json.RawMessage `json:"event"`
}

// Run subscribes to other instances' pushes until Stop. Without Redis it
// returns immediately.
func (h *Hub) Run() {
	if h.redisClient == nil {
		close(h.subscribed)
		return
	}

	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(h.ctx); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("live channel subscribe failed, cross-instance delivery disabled")
		close(h.subscribed)
		return
	}
	close(h.subscribed)

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm redisMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				continue
			}
			// 자기 인스턴스가 보낸 건 이미 전달함
			if rm.Origin == h.instanceID {
				continue
			}
			_ = h.deliverLocal(rm.UserID, rm.Event)
		case <-h.ctx.Done():
			return
		}
	}
}

// Subscribed is closed once Run has attached to Redis (or given up)
func (h *Hub) Subscribed() <-chan struct{} {
	return h.subscribed
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
