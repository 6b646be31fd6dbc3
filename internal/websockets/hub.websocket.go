package websockets

import (
	"context"
	"errors"
	"sync"
)

var errNotBackOffice = errors.New("live feed requires an active back-office account")

func contextForConn() context.Context {
	return context.Background()
}

type Hub struct {
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, present := h.clients[client.ID]; present {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.broadcastMessage(message, m)
		}
	}
}

func (h *Hub) broadcastMessage(message Message, m *Manager) {
	log := m.log.Function("broadcastMessage")

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for clientID, client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow consumer: drop the message rather than block the hub
			log.Warn("client send buffer full, dropping event", "clientID", clientID, "messageID", message.ID)
		}
	}
}
