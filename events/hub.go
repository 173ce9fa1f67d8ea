package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/utils"
)

// Event types pushed to connected dashboards. Clients that do not hold a
// websocket fall back to polling the REST endpoints.
const (
	EventBookingUpdate   = "booking_update"
	EventNotification    = "notification"
	EventIssueUpdate     = "issue_update"
	EventDashboardUpdate = "dashboard_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds all connected clients (students, cleaners, admins) keyed by role.
type Hub struct {
	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastBookingUpdate pushes a booking change to all clients.
func BroadcastBookingUpdate(booking models.Booking) {
	broadcast(Message{Event: EventBookingUpdate, Data: booking})
}

// BroadcastNotification pushes a freshly created notification.
func BroadcastNotification(notif models.Notification) {
	broadcast(Message{Event: EventNotification, Data: notif})
}

// BroadcastIssueUpdate pushes an issue status change.
func BroadcastIssueUpdate(issue models.Issue) {
	broadcast(Message{Event: EventIssueUpdate, Data: issue})
}

// BroadcastDashboardUpdate pushes refreshed admin stats.
func BroadcastDashboardUpdate(data interface{}) {
	broadcast(Message{Event: EventDashboardUpdate, Data: data})
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling event: %v", err)
		return
	}

	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending event to client: %v", err)
		}
	}
}
