package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event types pushed to dashboard clients
const (
	TypeStockUpdate      = "stock_update"
	TypeProductionUpdate = "production_update"
)

type Event struct {
	ID     uuid.UUID   `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   interface{} `json:"data"`
	At     time.Time   `json:"at"`
}

func NewEvent(eventType, action string, data interface{}) Event {
	return Event{
		ID:     uuid.New(),
		Type:   eventType,
		Action: action,
		Data:   data,
		At:     time.Now().UTC(),
	}
}

// Publisher is what services depend on; Hub implements it.
type Publisher interface {
	Publish(event Event)
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

// BroadcastQueueSize is how many encoded events may wait for Run.
const BroadcastQueueSize = 64

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, BroadcastQueueSize),
	}
}

// Publish encodes the event and queues it for Run in publish order. It never
// blocks the caller: when the queue is full the event is dropped.
func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("ws: encode event")
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		log.Warn().Str("type", event.Type).Str("action", event.Action).Msg("ws: broadcast queue full, event dropped")
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Debug().Msg("ws client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
