package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tsumiki/yoyakubot/internal/observability/metrics"
	"github.com/tsumiki/yoyakubot/pkg/logging"
)

const (
	defaultWorkers     = 2
	defaultReceiveWait = 5
	receiveBatchSize   = 10
)

// Handler processes one inbound message end to end.
type Handler interface {
	HandleMessage(ctx context.Context, msg InboundMessage) error
}

// ErrorNotifier tells the end user that their message could not be handled.
type ErrorNotifier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
	PushText(ctx context.Context, userID, text string) error
}

// Worker consumes inbound messages from the queue and drives the engine.
// Panics and programming errors are converted into a generic error reply so
// a single bad event never takes a worker down.
type Worker struct {
	handler  Handler
	queue    queueClient
	notifier ErrorNotifier
	logger   *logging.Logger
	metrics  *metrics.ConversationMetrics
	workers  int
	wg       sync.WaitGroup
}

// NewWorker creates a worker pool over the queue. metrics may be nil.
func NewWorker(handler Handler, queue queueClient, notifier ErrorNotifier, logger *logging.Logger, m *metrics.ConversationMetrics, workers int) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Worker{
		handler:  handler,
		queue:    queue,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		workers:  workers,
	}
}

// Start launches the consumer goroutines. They exit when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("conversation worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("conversation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, receiveBatchSize, defaultReceiveWait)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive inbound messages", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	defer w.deleteMessage(msg.ReceiptHandle)

	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode inbound payload", "error", err, "msg_id", msg.ID)
		return
	}

	inbound := payload.Message
	started := time.Now()

	err := w.process(ctx, inbound)
	w.metrics.ObserveHandleLatency(inbound.MessageType, time.Since(started).Seconds())

	if err != nil {
		w.logger.Error("conversation handling failed",
			"job_id", payload.ID,
			"user_id", inbound.UserID,
			"type", inbound.MessageType,
			"error", err,
		)
		w.notifyError(ctx, inbound)
	}
}

// process wraps the engine call so a panic in handling surfaces as an error.
func (w *Worker) process(ctx context.Context, msg InboundMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversation: panic during handling: %v", r)
		}
	}()
	return w.handler.HandleMessage(ctx, msg)
}

func (w *Worker) notifyError(ctx context.Context, msg InboundMessage) {
	if w.notifier == nil {
		return
	}
	if msg.ReplyToken != "" {
		if err := w.notifier.ReplyText(ctx, msg.ReplyToken, msgGenericError); err == nil {
			return
		}
	}
	if msg.UserID != "" {
		if err := w.notifier.PushText(ctx, msg.UserID, msgGenericError); err != nil {
			w.logger.Warn("error notification failed", "user_id", msg.UserID, "error", err)
		}
	}
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Warn("failed to delete queue message", "error", err)
	}
}
