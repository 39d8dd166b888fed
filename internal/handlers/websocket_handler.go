package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now - can be restricted in production
		return true
	},
}

// WebSocketHandler feeds completion events to connected dashboards
type WebSocketHandler struct {
	hub *services.WebSocketHub
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *services.WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleConnection upgrades HTTP to WebSocket and manages the connection.
// An optional buildingId query parameter subscribes the client immediately.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := h.hub.NewClient(clientID, conn)

	h.hub.Register(client)

	if buildingID := r.URL.Query().Get("buildingId"); buildingID != "" {
		h.hub.Subscribe(client, services.TopicBuilding+":"+buildingID)
	}

	// Start the write pump in a goroutine
	go client.WritePump()

	// Run the read pump (blocks until connection closes)
	client.ReadPump(h.handleMessage)
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(client *services.WSClient, messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg services.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		observability.Debugf("Invalid WebSocket message: %v", err)
		return
	}

	switch msg.Type {
	case services.WSTypeSubscribe:
		if topic, ok := topicFromPayload(msg.Payload); ok {
			h.hub.Subscribe(client, topic)
		}

	case services.WSTypeUnsubscribe:
		if topic, ok := topicFromPayload(msg.Payload); ok {
			h.hub.Unsubscribe(client, topic)
		}

	case services.WSTypePing:
		response := services.WSMessage{Type: services.WSTypePong}
		if data, err := json.Marshal(response); err == nil {
			client.Send <- data
		}

	default:
		observability.Debugf("Unknown WebSocket message type: %s", msg.Type)
	}
}

func topicFromPayload(payload interface{}) (string, bool) {
	if topic, ok := payload.(string); ok {
		return topic, true
	}
	if m, ok := payload.(map[string]interface{}); ok {
		if topic, ok := m["topic"].(string); ok {
			return topic, true
		}
	}
	return "", false
}
