package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/pricesync/pkg/config"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

// Client owns the Pub/Sub connection used to receive catalog product events.
type Client struct {
	client      *pubsub.Client
	catalogSub  string
	receiveOpts receiveOptions
}

type receiveOptions struct {
	maxOutstanding int
	goroutines     int
}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errSubscriptionRequired = errors.New("catalog events subscription is required")
	errNotInitialized       = errors.New("pubsub client not initialized")
)

// NewClient connects to Pub/Sub and fails when the catalog events
// subscription is missing or does not exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	catalogSub := subscriptionResourceName(projectID, cfg.CatalogEventsSubscription)
	if catalogSub == "" {
		return nil, errSubscriptionRequired
	}

	psClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     psClient,
		catalogSub: catalogSub,
		receiveOpts: receiveOptions{
			maxOutstanding: cfg.MaxOutstandingMessages,
			goroutines:     cfg.NumGoroutines,
		},
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "subscription", catalogSub), "pubsub client initialized")
	}
	return c, nil
}

// CatalogEventsSubscriber returns the subscriber for catalog product events
// with flow control applied.
func (c *Client) CatalogEventsSubscriber() (*pubsub.Subscriber, error) {
	if c == nil || c.client == nil {
		return nil, errNotInitialized
	}
	sub := c.client.Subscriber(c.catalogSub)
	c.receiveOpts.apply(&sub.ReceiveSettings)
	return sub, nil
}

func (o receiveOptions) apply(rs *pubsub.ReceiveSettings) {
	if o.maxOutstanding > 0 {
		rs.MaxOutstandingMessages = o.maxOutstanding
	}
	if o.goroutines > 0 {
		rs.NumGoroutines = o.goroutines
	}
}

// Ping confirms the catalog events subscription is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
		Subscription: c.catalogSub,
	})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("subscription %q does not exist", c.catalogSub)
	default:
		return fmt.Errorf("checking subscription %q: %w", c.catalogSub, err)
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// subscriptionResourceName expands a bare subscription id to
// projects/<project>/subscriptions/<id>. Full resource names pass through.
func subscriptionResourceName(projectID, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/subscriptions/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/subscriptions/%s", p, n)
}
