package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher owns one AMQP channel. Channels are not safe for concurrent
// publishing, so every publish goes through mu.
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	msg.ContentType = "application/json"
	msg.DeliveryMode = amqp.Persistent
	msg.Timestamp = time.Now().UTC()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher, routingKey string) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: routingKey}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.pub.exchange, sp.routingKey, amqp.Publishing{Body: msg})
}

// DetectionPublisher hands selected frames to the detection service over
// the shared topic exchange.
type DetectionPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewDetectionPublisher(pub *Publisher, routingKey string) *DetectionPublisher {
	return &DetectionPublisher{pub: pub, routingKey: routingKey}
}

func (dp *DetectionPublisher) PublishSelected(ctx context.Context, msg []byte) error {
	return dp.pub.publish(ctx, dp.pub.exchange, dp.routingKey, amqp.Publishing{Body: msg})
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

// PublishToDLQ sends msg straight to the dead-letter queue through the
// default exchange.
func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return dp.pub.publish(ctx, "", dp.queue, amqp.Publishing{
		Body:    msg,
		Headers: amqp.Table{"x-dlq-reason": reason},
	})
}
