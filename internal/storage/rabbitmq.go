package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
)

// RabbitMQ carries the applicant-created events that drive asynchronous
// rating. The topology is one topic exchange with a single durable queue
// bound to the applicant.created routing key.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	routing  string
	queue    string
	prefetch int
}

func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	r := &RabbitMQ{
		conn:     conn,
		channel:  channel,
		exchange: cfg.ApplicantEventsExchange,
		routing:  cfg.ApplicantCreatedKey,
		queue:    cfg.RatingQueue,
		prefetch: cfg.PrefetchCount,
	}
	if err := r.declareTopology(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) declareTopology() error {
	if err := r.channel.ExchangeDeclare(r.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", r.exchange, err)
	}
	if _, err := r.channel.QueueDeclare(r.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", r.queue, err)
	}
	if err := r.channel.QueueBind(r.queue, r.routing, r.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", r.queue, err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// PublishApplicantCreated emits the event that triggers asynchronous rating
// of a newly stored applicant. The event carries the record's ID, so the
// consumer never has to find the row by name.
func (r *RabbitMQ) PublishApplicantCreated(ctx context.Context, applicantID string) error {
	event := types.ApplicantCreatedEvent{
		ApplicantID: applicantID,
		CreatedAt:   time.Now().UnixMilli(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize applicant event: %w", err)
	}
	err = r.channel.PublishWithContext(ctx, r.exchange, r.routing, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish applicant event: %w", err)
	}
	logger.Debug().Str("applicant_id", applicantID).Msg("applicant created event published")
	return nil
}

// ConsumeApplicantCreated delivers applicant-created events to handler until
// ctx ends. A handler error nacks the delivery without requeue; transient
// failures are retried inside the rating worker, not by redelivery.
func (r *RabbitMQ) ConsumeApplicantCreated(ctx context.Context, handler func(context.Context, types.ApplicantCreatedEvent) error) error {
	prefetch := r.prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := r.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := r.channel.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", r.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var event types.ApplicantCreatedEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				logger.Warn().Err(err).Msg("dropping unreadable applicant event")
				d.Nack(false, false)
				continue
			}
			if err := handler(ctx, event); err != nil {
				logger.Error().Str("applicant_id", event.ApplicantID).Err(err).Msg("applicant event handling failed")
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}
