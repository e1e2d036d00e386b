package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/openalpha/lbp-dex/metrics"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by channel
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Subscription management
	subscriptions map[string]map[*Client]bool // topic -> clients

	// Inbound messages from clients
	broadcast chan []byte

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Message buffers for different channels
	priceBuffer   map[string]*PriceMessage // keyed pool:token_in:token_out
	weightsBuffer map[string]*WeightsMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Configuration
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Update intervals
	PriceInterval   time.Duration // Default: 100ms
	WeightsInterval time.Duration // Default: 100ms
	SwapsBuffer     int           // Number of swaps to buffer

	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Rate limiting
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		PriceInterval:    100 * time.Millisecond,
		WeightsInterval:  100 * time.Millisecond,
		SwapsBuffer:      100,
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:       make(map[*Client]bool),
		channels:      make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *SubscriptionRequest, 256),
		unsubscribe:   make(chan *SubscriptionRequest, 256),
		priceBuffer:   make(map[string]*PriceMessage),
		weightsBuffer: make(map[string]*WeightsMessage),
		config:        config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	// Start buffered broadcasts
	priceTicker := time.NewTicker(h.config.PriceInterval)
	weightsTicker := time.NewTicker(h.config.WeightsInterval)

	defer priceTicker.Stop()
	defer weightsTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-priceTicker.C:
			h.broadcastPrices()

		case <-weightsTicker.C:
			h.broadcastWeights()
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	metrics.GetCollector().RecordWSConnection(1)
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		// Remove from all channels
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		// Remove from all subscriptions
		for topic := range h.subscriptions {
			delete(h.subscriptions[topic], client)
		}

		close(client.send)
		metrics.GetCollector().RecordWSConnection(-1)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	// Send subscription confirmation
	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	// Send unsubscription confirmation
	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastMessage sends a message to all clients in a channel
func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client buffer is full, skip
		}
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	timer := metrics.NewTimer()

	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Make a copy of clients to avoid holding lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}

	metrics.GetCollector().RecordWSMessage(channel, timer.ElapsedMs())
}

// ============ Channel-specific broadcasts ============

// UpdatePrice updates the price buffer for a pool pair
func (h *Hub) UpdatePrice(price *PriceMessage) {
	key := price.PoolID + ":" + price.TokenIn + ":" + price.TokenOut
	h.mu.Lock()
	h.priceBuffer[key] = price
	h.mu.Unlock()
}

// UpdateWeights updates the weights buffer for a pool
func (h *Hub) UpdateWeights(weights *WeightsMessage) {
	h.mu.Lock()
	h.weightsBuffer[weights.PoolID] = weights
	h.mu.Unlock()
}

// broadcastPrices broadcasts all buffered price updates
func (h *Hub) broadcastPrices() {
	h.mu.RLock()
	prices := make(map[string]*PriceMessage)
	for k, v := range h.priceBuffer {
		prices[k] = v
	}
	h.mu.RUnlock()

	for _, price := range prices {
		channel := "price:" + price.PoolID
		msg := &WSMessage{
			Type:    "price",
			Channel: channel,
			Data:    price,
		}
		h.BroadcastToChannel(channel, msg)
	}
}

// broadcastWeights broadcasts all buffered weight updates
func (h *Hub) broadcastWeights() {
	h.mu.RLock()
	weights := make(map[string]*WeightsMessage)
	for k, v := range h.weightsBuffer {
		weights[k] = v
	}
	h.mu.RUnlock()

	for poolID, update := range weights {
		channel := "weights:" + poolID
		msg := &WSMessage{
			Type:    "weights",
			Channel: channel,
			Data:    update,
		}
		h.BroadcastToChannel(channel, msg)
	}
}

// BroadcastSwap broadcasts an executed swap to pool subscribers
func (h *Hub) BroadcastSwap(poolID string, swap *SwapMessage) {
	channel := "swaps:" + poolID
	msg := &WSMessage{
		Type:    "swap",
		Channel: channel,
		Data:    swap,
	}
	h.BroadcastToChannel(channel, msg)
}

// BroadcastTraderSwap broadcasts a swap confirmation to a specific trader
func (h *Hub) BroadcastTraderSwap(trader string, swap *SwapMessage) {
	channel := "trader:" + trader
	msg := &WSMessage{
		Type:    "swap",
		Channel: channel,
		Data:    swap,
	}
	h.BroadcastToChannel(channel, msg)
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// PriceMessage represents a spot price update for one pool pair
type PriceMessage struct {
	PoolID    string `json:"pool_id"`
	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	SpotPrice string `json:"spot_price"`
	Timestamp int64  `json:"timestamp"`
}

// WeightsMessage represents a pool weight update
type WeightsMessage struct {
	PoolID      string   `json:"pool_id"`
	Denoms      []string `json:"denoms"`
	Weights     []string `json:"weights"`
	GlideActive bool     `json:"glide_active"`
	Timestamp   int64    `json:"timestamp"`
}

// SwapMessage represents an executed swap
type SwapMessage struct {
	PoolID    string `json:"pool_id"`
	Trader    string `json:"trader,omitempty"`
	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	FeeAmount string `json:"fee_amount"`
	SpotPrice string `json:"spot_price"`
	Timestamp int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = generateID()
	}

	userID := r.URL.Query().Get("trader")
	ip := getClientIPFromRequest(r)

	client := NewClient(h, conn, clientID, userID, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

// Generate a simple ID
func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
