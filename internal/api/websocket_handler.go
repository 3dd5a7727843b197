package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/pubsub"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/utils"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

const (
	websocketReadBufferSize        = 1024
	websocketWriteBufferSize       = 1024
	websocketSendChannelBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  websocketReadBufferSize,
	WriteBufferSize: websocketWriteBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn       *websocket.Conn
	merchantID string
	send       chan []byte
}

// WebSocketHandler streams processed conversations to the merchant dashboard
// in real time. Clients are scoped to their own merchant channel.
type WebSocketHandler struct {
	clients         map[*Client]bool
	register        chan *Client
	unregister      chan *Client
	mutex           sync.RWMutex
	logger          *logger.Logger
	pubsub          *pubsub.RedisPubSub
	ctx             context.Context
	cancel          context.CancelFunc
	merchantClients map[string]int // Count of clients per merchant
}

func NewWebSocketHandler(logger *logger.Logger, pubsub *pubsub.RedisPubSub) *WebSocketHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHandler{
		clients:         make(map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		logger:          logger,
		pubsub:          pubsub,
		ctx:             ctx,
		cancel:          cancel,
		merchantClients: make(map[string]int),
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// Merchant scope comes from the auth middleware and is required.
	merchantID, exists := c.Get(string(utils.MerchantIDKey))
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No merchant ID found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &Client{
		conn:       conn,
		merchantID: merchantID.(string),
		send:       make(chan []byte, websocketSendChannelBufferSize),
	}
	h.register <- client

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WebSocketHandler) Start() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.merchantClients[client.merchantID]++

			// Subscribe to the merchant's channel on first client
			if h.merchantClients[client.merchantID] == 1 {
				if err := h.pubsub.Subscribe(h.ctx, client.merchantID, h.handlePubSubMessage); err != nil {
					h.logger.Errorf("Failed to subscribe to merchant %s: %v", client.merchantID, err)
				}
			}
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				h.merchantClients[client.merchantID]--

				// Unsubscribe once the last client for this merchant is gone
				if h.merchantClients[client.merchantID] == 0 {
					h.pubsub.Unsubscribe(client.merchantID)
					delete(h.merchantClients, client.merchantID)
				}
			}
			h.mutex.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandler) Stop() {
	h.cancel()
	h.pubsub.Close()
}

// handlePubSubMessage fans a conversation event out to every connected client
// of the owning merchant.
func (h *WebSocketHandler) handlePubSubMessage(event *domain.ConversationEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("Error marshaling conversation event: %v", err)
		return
	}

	// The slow-client branch mutates the client maps, so this needs the
	// write lock even though the common path only reads.
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.merchantID == event.MerchantID {
			select {
			case client.send <- message:
			default: // If the channel is full, close the channel and remove the client
				close(client.send)
				delete(h.clients, client)
				h.merchantClients[client.merchantID]--

				if h.merchantClients[client.merchantID] == 0 {
					h.pubsub.Unsubscribe(client.merchantID)
					delete(h.merchantClients, client.merchantID)
				}
			}
		}
	}
}

func (h *WebSocketHandler) writePump(client *Client) {
	defer func() {
		client.conn.Close()
	}()

	for message := range client.send {
		w, err := client.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}

	// Channel was closed, send close message
	client.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *WebSocketHandler) readPump(client *Client) {
	defer func() {
		h.unregister <- client
		client.conn.Close()
	}()

	for {
		messageType, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warnf("Unexpected close error for client %s: %v", client.merchantID, err)
			} else {
				h.logger.Warnf("Read error for client %s: %v", client.merchantID, err)
			}
			break
		}

		// Clients are receive-only; log anything they send anyway.
		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			h.logger.Infof("Received message from client %s: %s", client.merchantID, string(message))
		}
	}
}
