package websockets

import (
	"context"
	"feedloader/internal/types"
	"strconv"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	MESSAGE_TYPE_STATUS = "feed_upload_status"
	MESSAGE_TYPE_ERROR  = "error"
	PING_INTERVAL       = 30 * time.Second
	PONG_TIMEOUT        = 60 * time.Second
	WRITE_TIMEOUT       = 10 * time.Second
	MAX_MESSAGE_SIZE    = 1024
	SEND_CHANNEL_SIZE   = 16
)

type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusSource provides the snapshot a new watcher receives before live events.
type StatusSource interface {
	GetFeedUploadStatus(ctx context.Context, id int) (*types.FeedUploadStatusResponse, error)
}

type Client struct {
	ID           string
	FeedUploadID int
	Connection   *websocket.Conn
	Manager      *Manager
	send         chan Message
	closed       bool
}

// Manager streams status transitions of one upload to every websocket watching it.
type Manager struct {
	hub    *Hub
	status StatusSource
	log    logger.Logger
}

func New(status StatusSource) *Manager {
	return &Manager{
		hub:    newHub(),
		status: status,
		log:    logger.New("websockets"),
	}
}

func newMessage(messageType string, data any) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// HandleStatusEvent fans one status event out to the upload's watchers. It has the shape of
// an events status handler.
func (m *Manager) HandleStatusEvent(event types.FeedUploadStatusEvent) error {
	m.hub.sendToUpload(event.FeedUploadID, newMessage(MESSAGE_TYPE_STATUS, event), m.log)
	return nil
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	feedUploadID, err := strconv.Atoi(c.Params("id"))
	if err != nil || feedUploadID <= 0 {
		_ = c.WriteJSON(newMessage(MESSAGE_TYPE_ERROR, map[string]any{"reason": "Invalid feed id"}))
		_ = c.Close()
		return
	}

	client := &Client{
		ID:           uuid.NewString(),
		FeedUploadID: feedUploadID,
		Connection:   c,
		Manager:      m,
		send:         make(chan Message, SEND_CHANNEL_SIZE),
	}

	m.hub.register(client)
	defer func() {
		m.hub.unregister(client)
		if err := c.Close(); err != nil {
			log.Debug("connection already closed", "clientID", client.ID, "error", err)
		}
	}()

	snapshot, err := m.status.GetFeedUploadStatus(context.Background(), feedUploadID)
	if err != nil {
		log.Warn("no status snapshot for watcher", "feedUploadID", feedUploadID, "error", err)
		_ = c.WriteJSON(newMessage(MESSAGE_TYPE_ERROR, map[string]any{"reason": "Feed upload was not found"}))
		return
	}
	if err := c.WriteJSON(newMessage(MESSAGE_TYPE_STATUS, types.FeedUploadStatusEvent{
		FeedUploadID: snapshot.ID,
		Status:       snapshot.Status,
	})); err != nil {
		log.Er("failed to send status snapshot", err, "clientID", client.ID)
		return
	}
	if snapshot.Status.IsTerminal() {
		return
	}

	log.Info("Watcher connected", "clientID", client.ID, "feedUploadID", feedUploadID)

	go client.readPump()
	client.writePump()
}

// readPump only keeps the read deadline fresh; watchers never send anything meaningful.
func (c *Client) readPump() {
	defer c.Manager.hub.unregister(c)

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	_ = c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	})

	for {
		if _, _, err := c.Connection.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Manager.log.Function("readPump").Er("unexpected close", err, "clientID", c.ID)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")

	ticker := time.NewTicker(PING_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("failed to write message", err, "clientID", c.ID)
				return
			}
			if isTerminalStatusMessage(message) {
				_ = c.Connection.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed upload finished"),
				)
				return
			}

		case <-ticker.C:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isTerminalStatusMessage(message Message) bool {
	event, ok := message.Data.(types.FeedUploadStatusEvent)
	return ok && message.Type == MESSAGE_TYPE_STATUS && event.Status.IsTerminal()
}
