package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// TopicMetadataKey names the metadata entry that routes a message published
// with an empty topic.
const TopicMetadataKey = "topic"

// ErrNoTopic is returned when a message has neither an explicit topic nor a
// topic in its metadata.
var ErrNoTopic = errors.New("message has no topic")

// EventBus is a watermill publisher and subscriber pair. Publishing to the
// empty topic routes each message by its TopicMetadataKey metadata.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// eventBus routes messages and owns the underlying resources.
type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	natsConn   *nc.Conn
	logger     *slog.Logger
}

// Config configures the NATS JetStream bus.
type Config struct {
	URL              string
	QueueGroup       string
	SubscribersCount int
	AckWait          time.Duration
	// Streams maps a JetStream stream name to the subjects it captures.
	Streams map[string][]string
}

// NewNATS connects to NATS, makes sure every configured stream exists and
// returns a JetStream backed bus.
func NewNATS(ctx context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	natsConn, err := nc.Connect(cfg.URL, nc.RetryOnFailedConnect(true), nc.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}
	if err := InitializeStreams(ctx, js, cfg.Streams, logger); err != nil {
		natsConn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.URL,
			Marshaler:   marshaler,
			NatsOptions: []nc.Option{nc.RetryOnFailedConnect(true)},
			JetStream:   nats.JetStreamConfig{Disabled: false, AutoProvision: false, TrackMsgId: true},
		},
		wmLogger,
	)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscribersCount := cfg.SubscribersCount
	if subscribersCount <= 0 {
		subscribersCount = 1
	}
	ackWait := cfg.AckWait
	if ackWait <= 0 {
		ackWait = 30 * time.Second
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              cfg.URL,
			QueueGroupPrefix: cfg.QueueGroup,
			SubscribersCount: subscribersCount,
			AckWaitTimeout:   ackWait,
			CloseTimeout:     10 * time.Second,
			Unmarshaler:      marshaler,
			NatsOptions:      []nc.Option{nc.RetryOnFailedConnect(true)},
			JetStream: nats.JetStreamConfig{
				Disabled:          false,
				AutoProvision:     false,
				DurablePrefix:     cfg.QueueGroup,
				DurableCalculator: durableName,
			},
		},
		wmLogger,
	)
	if err != nil {
		natsConn.Close()
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	return &eventBus{
		publisher:  publisher,
		subscriber: subscriber,
		natsConn:   natsConn,
		logger:     logger,
	}, nil
}

// NewInMemory returns a bus backed by a watermill gochannel, used by tests and
// single-process runs.
func NewInMemory(logger *slog.Logger) EventBus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
	return &eventBus{publisher: pubSub, subscriber: pubSub, logger: logger}
}

// durableName derives a consumer name from the topic; JetStream rejects dots
// and wildcards in durable names.
func durableName(prefix, topic string) string {
	if prefix == "" {
		return ""
	}
	r := strings.NewReplacer(".", "_", "*", "any", ">", "all")
	return prefix + "_" + r.Replace(topic)
}

func (eb *eventBus) Publish(topic string, msgs ...*message.Message) error {
	if topic != "" {
		return eb.publisher.Publish(topic, msgs...)
	}
	for _, msg := range msgs {
		routed := msg.Metadata.Get(TopicMetadataKey)
		if routed == "" {
			return fmt.Errorf("%w: %s", ErrNoTopic, msg.UUID)
		}
		if err := eb.publisher.Publish(routed, msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", routed, err)
		}
		eb.logger.Debug("Message published",
			slog.String("topic", routed),
			slog.String("message_id", msg.UUID),
		)
	}
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	eb.logger.Info("Subscribing to topic", slog.String("topic", topic))
	return eb.subscriber.Subscribe(ctx, topic)
}

// Close closes all NATS and Watermill resources.
func (eb *eventBus) Close() error {
	var errs []error
	if err := eb.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing publisher: %w", err))
	}
	if any(eb.subscriber) != any(eb.publisher) {
		if err := eb.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing subscriber: %w", err))
		}
	}
	if eb.natsConn != nil {
		eb.natsConn.Close()
	}
	return errors.Join(errs...)
}
