package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/tsumiki/yoyakubot/pkg/logging"
)

// enqueueTimeout caps how long the webhook path may wait on a full queue.
// The platform expects a fast 200, so a saturated queue drops the event.
const enqueueTimeout = 2 * time.Second

// Publisher enqueues inbound messages for asynchronous processing.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// Publish enqueues one inbound message. Returns an error when the queue is
// saturated past the enqueue timeout.
func (p *Publisher) Publish(ctx context.Context, msg InboundMessage) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	payload, body, err := encodePayload(msg)
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("conversation: failed to enqueue message: %w", err)
	}

	p.logger.Debug("inbound message enqueued", "job_id", payload.ID, "user_id", msg.UserID, "type", msg.MessageType)
	return nil
}
