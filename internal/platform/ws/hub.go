// Package ws pushes live vitals to connected clients. It implements a
// hub-and-spoke pattern where clients subscribe to per-patient topics and
// receive every band update committed for those patients.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careband/careband/internal/platform/auth"
)

// Event is a single vitals notification sent to subscribers.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	PatientID int64           `json:"patient_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound message from a client.
type ClientMessage struct {
	Action string   `json:"action"` // subscribe | unsubscribe
	Topics []string `json:"topics"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a single connected subscriber.
type Client struct {
	ID     string
	UserID int64
	Topics []string
	Send   chan []byte
	hub    *Hub
	conn   Conn
}

// Hub tracks clients and their topic subscriptions. All operations are
// safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> subscribers
	all     map[*Client]struct{}
}

// NewHub creates a Hub ready to manage clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

// PatientTopic returns the topic name that carries a patient's vitals.
func PatientTopic(patientID int64) string {
	return "patient." + strconv.FormatInt(patientID, 10)
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

// Unregister removes a client from all subscriptions and closes its Send
// channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, topic := range client.Topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to an already-registered client.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
		client.Topics = appendUnique(client.Topics, topic)
	}
}

// Unsubscribe removes topics from a client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
		client.Topics = remove(client.Topics, topic)
	}
}

// Broadcast sends an event to every client subscribed to its topic. Clients
// whose send buffer is full are skipped rather than blocked on.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.Topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// SubscriberCount returns the number of clients subscribed to a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func appendUnique(topics []string, topic string) []string {
	for _, t := range topics {
		if t == topic {
			return topics
		}
	}
	return append(topics, topic)
}

func remove(topics []string, topic string) []string {
	out := topics[:0]
	for _, t := range topics {
		if t != topic {
			out = append(out, t)
		}
	}
	return out
}

// TopicAuthorizer decides whether a user may subscribe to a patient topic.
// The directory service provides the implementation so the tenant-scoping
// rules hold on the feed as well as on the CRUD surface.
type TopicAuthorizer func(ctx context.Context, userID, patientID int64) error

// VitalsFeed bridges the directory's publisher contract onto the hub.
type VitalsFeed struct {
	hub *Hub
}

func NewVitalsFeed(hub *Hub) *VitalsFeed {
	return &VitalsFeed{hub: hub}
}

// Publish broadcasts a band update to the patient's topic.
func (f *VitalsFeed) Publish(patientID int64, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	f.hub.Broadcast(Event{
		Type:      "vitals",
		Topic:     PatientTopic(patientID),
		PatientID: patientID,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections and pumps hub events to clients.
type Handler struct {
	hub       *Hub
	authorize TopicAuthorizer
	logger    zerolog.Logger
}

func NewHandler(hub *Hub, authorize TopicAuthorizer, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, authorize: authorize, logger: logger}
}

// Serve handles GET /ws?topics=patient.1,patient.2. Every requested topic is
// authorized against the authenticated user before the client is registered.
func (h *Handler) Serve(c echo.Context) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var topics []string
	if raw := c.QueryParam("topics"); raw != "" {
		topics = strings.Split(raw, ",")
	}
	for _, topic := range topics {
		if err := h.checkTopic(c.Request().Context(), userID, topic); err != nil {
			return err
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Topics: topics,
		Send:   make(chan []byte, 64),
		hub:    h.hub,
		conn:   &gorillaConnAdapter{conn},
	}
	h.hub.Register(client)

	go h.writePump(client, conn)
	h.readPump(client)
	return nil
}

func (h *Handler) checkTopic(ctx context.Context, userID int64, topic string) error {
	idStr, ok := strings.CutPrefix(topic, "patient.")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown topic %q", topic))
	}
	patientID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown topic %q", topic))
	}
	if err := h.authorize(ctx, userID, patientID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return nil
}

func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		client.conn.Close()
	}()

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "subscribe":
			var allowed []string
			for _, topic := range msg.Topics {
				if h.checkTopic(context.Background(), client.UserID, topic) == nil {
					allowed = append(allowed, topic)
				}
			}
			h.hub.Subscribe(client, allowed)
		case "unsubscribe":
			h.hub.Unsubscribe(client, msg.Topics)
		}
	}
}

func (h *Handler) writePump(client *Client, conn *gorillawebsocket.Conn) {
	for message := range client.Send {
		if err := conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			h.logger.Debug().Err(err).Str("client_id", client.ID).Msg("ws write failed")
			return
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn
// interface.
type gorillaConnAdapter struct {
	*gorillawebsocket.Conn
}
