package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// ConsumerConfig wires a Consumer.
type ConsumerConfig struct {
	ProjectID      string
	SubscriptionID string
	Job            *RefreshJob
	// MaxOutstanding bounds unacknowledged messages held by the client.
	MaxOutstanding int
	Logger         zerolog.Logger
}

// Consumer feeds refresh messages from a subscription into a RefreshJob.
type Consumer struct {
	client       *pubsub.Client
	sub          *pubsub.Subscriber
	subscription string
	job          *RefreshJob
	log          zerolog.Logger
}

// NewConsumer connects to Pub/Sub. Close releases the client.
func NewConsumer(ctx context.Context, cfg ConsumerConfig) (*Consumer, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	sub := client.Subscriber(cfg.SubscriptionID)
	if cfg.MaxOutstanding > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstanding
	}
	sub.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &Consumer{
		client:       client,
		sub:          sub,
		subscription: cfg.SubscriptionID,
		job:          cfg.Job,
		log:          cfg.Logger.With().Str("subscription", cfg.SubscriptionID).Logger(),
	}, nil
}

// Run receives until ctx is done or the subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Msg("receiving refresh messages")
	return c.sub.Receive(ctx, c.receive)
}

// Close releases the client.
func (c *Consumer) Close() error {
	return c.client.Close()
}

func (c *Consumer) receive(ctx context.Context, msg *pubsub.Message) {
	start := time.Now()
	log := c.log.With().Str("message_id", msg.ID).Logger()
	if msg.DeliveryAttempt != nil {
		log = log.With().Int("delivery_attempt", *msg.DeliveryAttempt).Logger()
	}

	jobType, err := c.job.Handle(ctx, msg.Data)
	log = log.With().Str("job_type", jobType).Logger()

	if ack, level := settlement(err); ack {
		log.WithLevel(level).Err(err).Dur("duration", time.Since(start)).Msg("refresh message handled")
		msg.Ack()
		return
	}
	log.Error().Err(err).Dur("duration", time.Since(start)).Msg("refresh message failed, requesting redelivery")
	msg.Nack()
}

// settlement decides whether a handled message is acknowledged and at which
// level the outcome is logged. Malformed messages are dropped.
func settlement(err error) (bool, zerolog.Level) {
	switch {
	case err == nil:
		return true, zerolog.InfoLevel
	case errors.Is(err, ErrMalformedMessage):
		return true, zerolog.WarnLevel
	default:
		return false, zerolog.ErrorLevel
	}
}

// Publisher queues refresh requests. It satisfies activity.RefreshPublisher.
type Publisher struct {
	client *pubsub.Client
	pub    *pubsub.Publisher
}

// NewPublisher connects to Pub/Sub and binds topic.
func NewPublisher(ctx context.Context, projectID, topic string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Publisher{client: client, pub: client.Publisher(topic)}, nil
}

// PublishTravelRefresh asks the worker to recompute one trip and waits for
// the server to accept the message.
func (p *Publisher) PublishTravelRefresh(ctx context.Context, tripID string) error {
	return p.publish(ctx, RefreshMessage{JobType: JobTravelRefresh, TripID: tripID})
}

// PublishSweep asks the worker to recompute every active trip.
func (p *Publisher) PublishSweep(ctx context.Context) error {
	return p.publish(ctx, RefreshMessage{JobType: JobTravelRefreshAll})
}

func (p *Publisher) publish(ctx context.Context, m RefreshMessage) error {
	if err := m.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	attrs := map[string]string{"job_type": m.JobType}
	if m.TripID != "" {
		attrs["trip_id"] = m.TripID
	}
	if _, err := p.pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", m.JobType, err)
	}
	return nil
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	p.pub.Stop()
	return p.client.Close()
}
