package catalogevents

import (
	"context"
	"errors"
	"net"

	pubsub "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type productDeleter interface {
	DeleteProduct(ctx context.Context, id int64) error
}

// Consumer applies catalog product.deleted events. Deletion goes through the
// catalog service so the registered cleanup hooks run first.
type Consumer struct {
	catalog      productDeleter
	subscription receiver
	logg         *logger.Logger
}

func NewConsumer(catalog productDeleter, subscription receiver, logg *logger.Logger) (*Consumer, error) {
	if catalog == nil {
		return nil, errors.New("catalog service is required")
	}
	if subscription == nil {
		return nil, errors.New("catalog events subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{catalog: catalog, subscription: subscription, logg: logg}, nil
}

// Run processes events until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Only retryable
// failures are nacked.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes[attrEventType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != EventProductDeleted {
		c.logg.Debug(logCtx, "skipping unrelated catalog event")
		return true
	}

	productID, err := productIDFrom(msg.Data, msg.Attributes)
	if err != nil {
		logCtx = c.logg.WithField(logCtx, "payload_preview", previewBytes(msg.Data, 800))
		c.logg.Error(logCtx, "invalid product.deleted event", err)
		return true
	}
	logCtx = c.logg.WithProductID(logCtx, productID)

	if err := c.catalog.DeleteProduct(logCtx, productID); err != nil {
		c.logg.Error(logCtx, "product deletion cleanup failed", err)
		return !isRetryable(err)
	}
	c.logg.Info(logCtx, "processed product deletion event")
	return true
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return pkgerrors.Retryable(err)
}
