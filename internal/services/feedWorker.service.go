package services

import (
	"context"
	"feedloader/internal/models"
	"feedloader/internal/queue"
	"feedloader/internal/types"
	"sync"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gammazero/workerpool"
)

type DispatchProcessor interface {
	Process(ctx context.Context, dispatch types.FeedDispatch) Result
}

type DispatchAcknowledger interface {
	Ack(ctx context.Context) error
	Requeue(ctx context.Context) error
}

// FeedWorker runs received dispatches on a fixed-size pool. HandleDelivery blocks while every
// worker is busy, so the consumer never holds more deliveries than it can run.
type FeedWorker struct {
	pipeline    DispatchProcessor
	store       FeedUploadStore
	pool        *workerpool.WorkerPool
	slots       chan struct{}
	maxAttempts int
	stopOnce    sync.Once
	log         logger.Logger
}

func NewFeedWorker(pipeline DispatchProcessor, store FeedUploadStore, workers, maxAttempts int) *FeedWorker {
	if workers < 1 {
		workers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &FeedWorker{
		pipeline:    pipeline,
		store:       store,
		pool:        workerpool.New(workers),
		slots:       make(chan struct{}, workers),
		maxAttempts: maxAttempts,
		log:         logger.New("FeedWorker"),
	}
}

// HandleDelivery is a queue.Handler. A delivery that cannot get a worker before ctx is done
// stays in the processing list and is recovered on the next start.
func (w *FeedWorker) HandleDelivery(ctx context.Context, delivery queue.Delivery) {
	select {
	case w.slots <- struct{}{}:
	case <-ctx.Done():
		return
	}

	w.pool.Submit(func() {
		defer func() { <-w.slots }()
		w.Handle(ctx, delivery.Dispatch, delivery)
	})
}

// Handle processes one dispatch and settles its delivery.
func (w *FeedWorker) Handle(ctx context.Context, dispatch types.FeedDispatch, delivery DispatchAcknowledger) {
	log := w.log.Function("Handle")

	result := w.pipeline.Process(ctx, dispatch)
	settleCtx := context.WithoutCancel(ctx)

	if !result.Redeliver() {
		if err := delivery.Ack(settleCtx); err != nil {
			log.Er("failed to ack dispatch", err, "feedUploadID", dispatch.FeedUploadID)
		}
		return
	}

	if dispatch.Attempt+1 < w.maxAttempts {
		log.Warn(
			"Redelivering dispatch",
			"feedUploadID", dispatch.FeedUploadID,
			"attempt", dispatch.Attempt+1,
			"error", result.Err,
		)
		if err := delivery.Requeue(settleCtx); err != nil {
			log.Er("failed to requeue dispatch", err, "feedUploadID", dispatch.FeedUploadID)
		}
		return
	}

	message := FailureMessage(result.Err)
	log.Warn(
		"Dispatch attempts exhausted",
		"feedUploadID", dispatch.FeedUploadID,
		"attempts", dispatch.Attempt+1,
		"error", message,
	)
	if err := w.store.UpdateStatus(
		settleCtx,
		dispatch.FeedUploadID,
		models.FeedUploadStatusFinishedError,
		&message,
	); err != nil {
		log.Er("failed to mark feed upload failed", err, "feedUploadID", dispatch.FeedUploadID)
	}
	if err := delivery.Ack(settleCtx); err != nil {
		log.Er("failed to ack dispatch", err, "feedUploadID", dispatch.FeedUploadID)
	}
}

// Stop waits for running dispatches to finish.
func (w *FeedWorker) Stop() {
	w.stopOnce.Do(func() {
		w.pool.StopWait()
		w.log.Function("Stop").Info("Feed worker stopped")
	})
}
