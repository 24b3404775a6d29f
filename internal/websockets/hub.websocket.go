package websockets

import (
	"sync"

	logger "github.com/Bparsons0904/goLogger"
)

type Hub struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

func newHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) register(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[client.ID] = client
}

// unregister removes the client and closes its send channel once.
func (h *Hub) unregister(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if client.closed {
		return
	}
	client.closed = true
	delete(h.clients, client.ID)
	close(client.send)
}

func (h *Hub) count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// sendToUpload never blocks; a watcher whose buffer is full is disconnected.
func (h *Hub) sendToUpload(feedUploadID int, message Message, log logger.Logger) {
	h.mutex.RLock()
	var slow []*Client
	for _, client := range h.clients {
		if client.FeedUploadID != feedUploadID {
			continue
		}
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		log.Function("sendToUpload").Warn("Watcher too slow, disconnecting", "clientID", client.ID)
		h.unregister(client)
	}
}
