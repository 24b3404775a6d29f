package queue

import (
	"context"
	"encoding/json"
	"feedloader/internal/metrics"
	"feedloader/internal/types"
	"fmt"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

const (
	processingSuffix = ":processing"
	blockTimeout     = 5 * time.Second
	receiveBackoff   = time.Second
)

// FeedQueue is a reliable valkey list queue. Consumers move each message into a processing
// list with BLMOVE and remove it only once the dispatch has been handled, so messages held by
// a crashed worker are recovered on the next start. One consuming process per queue name.
type FeedQueue struct {
	client     valkey.Client
	name       string
	processing string
	log        logger.Logger
}

func New(client valkey.Client, name string) *FeedQueue {
	return &FeedQueue{
		client:     client,
		name:       name,
		processing: name + processingSuffix,
		log:        logger.New("FeedQueue"),
	}
}

// Delivery is one received dispatch. Exactly one of Ack or Requeue should be called.
type Delivery struct {
	Dispatch types.FeedDispatch
	payload  string
	queue    *FeedQueue
}

// Handler receives deliveries one at a time; it may hand them off and return early.
type Handler func(ctx context.Context, delivery Delivery)

func encodeDispatch(dispatch types.FeedDispatch) (string, error) {
	if err := dispatch.Validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(dispatch)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeDispatch(payload string) (types.FeedDispatch, error) {
	var dispatch types.FeedDispatch
	if err := json.Unmarshal([]byte(payload), &dispatch); err != nil {
		return types.FeedDispatch{}, fmt.Errorf("decode dispatch: %w", err)
	}
	if err := dispatch.Validate(); err != nil {
		return types.FeedDispatch{}, fmt.Errorf("decode dispatch: %w", err)
	}
	return dispatch, nil
}

func (q *FeedQueue) Name() string {
	return q.name
}

func (q *FeedQueue) Enqueue(ctx context.Context, dispatch types.FeedDispatch) error {
	log := q.log.Function("Enqueue")

	payload, err := encodeDispatch(dispatch)
	if err != nil {
		return log.Err("failed to encode dispatch", err, "feedUploadID", dispatch.FeedUploadID)
	}

	if err := q.client.Do(ctx, q.client.B().Lpush().Key(q.name).Element(payload).Build()).Error(); err != nil {
		return log.Err("failed to push dispatch", err, "queue", q.name, "feedUploadID", dispatch.FeedUploadID)
	}

	metrics.IncDispatch("enqueued")
	return nil
}

// Depth returns the number of dispatches waiting to be received.
func (q *FeedQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.Do(ctx, q.client.B().Llen().Key(q.name).Build()).AsInt64()
}

// MonitorDepth refreshes the queue depth gauge every interval until ctx is done.
func (q *FeedQueue) MonitorDepth(ctx context.Context, interval time.Duration) {
	log := q.log.Function("MonitorDepth")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		depth, err := q.Depth(ctx)
		switch {
		case err == nil:
			metrics.SetQueueDepth(q.name, depth)
		case ctx.Err() == nil:
			log.Warn("failed to read queue depth", "queue", q.name, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Recover moves every message left in the processing list back onto the queue.
func (q *FeedQueue) Recover(ctx context.Context) (int, error) {
	log := q.log.Function("Recover")

	recovered := 0
	for {
		cmd := q.client.B().Lmove().Source(q.processing).Destination(q.name).Right().Right().Build()
		err := q.client.Do(ctx, cmd).Error()
		if valkey.IsValkeyNil(err) {
			break
		}
		if err != nil {
			return recovered, log.Err("failed to recover in-flight dispatches", err, "queue", q.name)
		}
		recovered++
	}

	if recovered > 0 {
		log.Info("Recovered in-flight dispatches", "queue", q.name, "count", recovered)
	}
	return recovered, nil
}

// Consume blocks, feeding deliveries to handler until ctx is cancelled.
func (q *FeedQueue) Consume(ctx context.Context, handler Handler) error {
	log := q.log.Function("Consume")

	if _, err := q.Recover(ctx); err != nil {
		return err
	}

	log.Info("Consuming dispatches", "queue", q.name)
	for {
		if ctx.Err() != nil {
			log.Info("Stopped consuming dispatches", "queue", q.name)
			return nil
		}

		payload, err := q.receive(ctx)
		if valkey.IsValkeyNil(err) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Er("failed to receive dispatch", err, "queue", q.name)
			select {
			case <-ctx.Done():
			case <-time.After(receiveBackoff):
			}
			continue
		}

		dispatch, err := decodeDispatch(payload)
		if err != nil {
			log.Er("dropping malformed dispatch", err, "queue", q.name)
			if err := q.remove(context.WithoutCancel(ctx), payload); err != nil {
				log.Er("failed to drop malformed dispatch", err, "queue", q.name)
			}
			metrics.IncDispatch("dropped")
			continue
		}

		handler(ctx, Delivery{Dispatch: dispatch, payload: payload, queue: q})
	}
}

func (q *FeedQueue) receive(ctx context.Context) (string, error) {
	cmd := q.client.B().Blmove().
		Source(q.name).
		Destination(q.processing).
		Right().
		Left().
		Timeout(blockTimeout.Seconds()).
		Build()
	return q.client.Do(ctx, cmd).ToString()
}

func (q *FeedQueue) remove(ctx context.Context, payload string) error {
	return q.client.Do(ctx, q.client.B().Lrem().Key(q.processing).Count(1).Element(payload).Build()).Error()
}

func (d Delivery) Ack(ctx context.Context) error {
	if err := d.queue.remove(ctx, d.payload); err != nil {
		return d.queue.log.Function("Ack").Err("failed to ack dispatch", err, "feedUploadID", d.Dispatch.FeedUploadID)
	}

	metrics.IncDispatch("acked")
	return nil
}

// Requeue puts the dispatch back on the queue with its attempt counter incremented.
func (d Delivery) Requeue(ctx context.Context) error {
	log := d.queue.log.Function("Requeue")

	next := d.Dispatch
	next.Attempt++

	payload, err := encodeDispatch(next)
	if err != nil {
		return log.Err("failed to encode dispatch", err, "feedUploadID", d.Dispatch.FeedUploadID)
	}

	for _, resp := range d.queue.client.DoMulti(ctx,
		d.queue.client.B().Lpush().Key(d.queue.name).Element(payload).Build(),
		d.queue.client.B().Lrem().Key(d.queue.processing).Count(1).Element(d.payload).Build(),
	) {
		if err := resp.Error(); err != nil {
			return log.Err("failed to requeue dispatch", err, "feedUploadID", d.Dispatch.FeedUploadID)
		}
	}

	metrics.IncDispatch("requeued")
	return nil
}
