package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/streamkart/storefront/internal/orders"
)

// EventWriter is the slice of kafka.Writer the poller needs.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxSource is the slice of the orders repository the poller needs.
type OutboxSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*orders.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// OutboxPoller drains the order outbox into Kafka. Events are marked
// processed only after a successful write, so a broker outage replays
// them instead of losing them.
type OutboxPoller struct {
	tick   time.Duration
	repo   OutboxSource
	writer EventWriter
	log    zerolog.Logger
}

func NewOutboxPoller(repo OutboxSource, writer EventWriter, log zerolog.Logger) *OutboxPoller {
	return &OutboxPoller{
		tick:   time.Second,
		repo:   repo,
		writer: writer,
		log:    log,
	}
}

// NewKafkaWriter builds the writer the poller publishes through.
func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to fetch outbox events")
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to publish event")
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to mark event as processed")
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *orders.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
