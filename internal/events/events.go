package events

import (
	"context"
	"encoding/json"
	"feedloader/internal/models"
	"feedloader/internal/types"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	FEED_UPLOAD_STATUS_CHANNEL Channel = "feed_upload.status"
)

type MessageType string

const (
	FEED_UPLOAD_STATUS MessageType = "feed_upload_status"
)

type Event struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Channel   Channel         `json:"channel"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type EventHandler func(event Event) error

// EventBus fans events out over valkey pub/sub. Handlers run for every event received on a
// subscribed channel, including events this process published.
type EventBus struct {
	client    valkey.Client
	log       logger.Logger
	handlers  map[Channel][]EventHandler
	listening map[Channel]bool
	mutex     sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(client valkey.Client) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:    client,
		log:       logger.New("EventBus"),
		handlers:  make(map[Channel][]EventHandler),
		listening: make(map[Channel]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func newEvent(channel Channel, eventType MessageType, data any) (Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}

	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Channel:   channel,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	log := eb.log.Function("Publish")

	eventData, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err = eb.client.Do(ctx, eb.client.B().Publish().Channel(event.Channel.String()).Message(string(eventData)).Build()).
		Error()
	if err != nil {
		return log.Err("failed to publish event", err, "channel", event.Channel, "eventID", event.ID)
	}

	log.Debug("Event published", "channel", event.Channel, "eventID", event.ID, "eventType", event.Type)
	return nil
}

// PublishStatus announces a feed upload status transition.
func (eb *EventBus) PublishStatus(ctx context.Context, feedUploadID int, status models.FeedUploadStatus) error {
	event, err := newEvent(FEED_UPLOAD_STATUS_CHANNEL, FEED_UPLOAD_STATUS, types.FeedUploadStatusEvent{
		FeedUploadID: feedUploadID,
		Status:       status,
	})
	if err != nil {
		return err
	}
	return eb.Publish(ctx, event)
}

// SubscribeStatus calls handler for every feed upload status transition.
func (eb *EventBus) SubscribeStatus(handler func(types.FeedUploadStatusEvent) error) {
	eb.Subscribe(FEED_UPLOAD_STATUS_CHANNEL, func(event Event) error {
		status, err := DecodeStatusEvent(event)
		if err != nil {
			return err
		}
		return handler(status)
	})
}

func DecodeStatusEvent(event Event) (types.FeedUploadStatusEvent, error) {
	var status types.FeedUploadStatusEvent
	err := json.Unmarshal(event.Data, &status)
	return status, err
}

func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) {
	log := eb.log.Function("Subscribe")

	eb.mutex.Lock()
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	startListener := !eb.listening[channel]
	eb.listening[channel] = true
	eb.mutex.Unlock()

	log.Info("Handler subscribed to channel", "channel", channel)

	if startListener {
		go eb.listenToChannel(channel)
	}
}

func (eb *EventBus) dispatch(channel Channel, event Event) {
	log := eb.log.Function("dispatch")

	eb.mutex.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[channel]...)
	eb.mutex.RUnlock()

	for i, handler := range handlers {
		if err := handler(event); err != nil {
			log.Er("handler failed", err, "channel", channel, "eventID", event.ID, "handlerIndex", i)
		}
	}
}

func (eb *EventBus) listenToChannel(channel Channel) {
	log := eb.log.Function("listenToChannel")

	for eb.ctx.Err() == nil {
		err := eb.client.Receive(
			eb.ctx,
			eb.client.B().Subscribe().Channel(channel.String()).Build(),
			func(msg valkey.PubSubMessage) {
				var event Event
				if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
					log.Er("failed to unmarshal event", err, "channel", channel)
					return
				}
				eb.dispatch(channel, event)
			},
		)
		if err != nil && eb.ctx.Err() == nil {
			log.Er("subscription interrupted, resubscribing", err, "channel", channel)
			select {
			case <-eb.ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (eb *EventBus) Close() error {
	eb.cancel()
	eb.log.Function("Close").Info("EventBus closed")
	return nil
}
