// internal/queue/amqp.go
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AmqpPublisher pushes enrichment jobs onto a durable RabbitMQ queue for
// cmd/worker to consume, instead of running them in-process.
type AmqpPublisher struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

func NewAmqpPublisher(url, queueName string, logger *zap.Logger) (*AmqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	return &AmqpPublisher{conn: conn, channel: ch, queueName: queueName, logger: logger}, nil
}

func (p *AmqpPublisher) Dispatch(job EnrichmentJob) bool {
	body, err := json.Marshal(job)
	if err != nil {
		p.logger.Error("marshal enrichment job", zap.Error(err))
		return false
	}

	err = p.channel.Publish(
		"",          // default exchange
		p.queueName, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("publish enrichment job",
			zap.Int64("message_record_id", job.MessageRecordID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (p *AmqpPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

var _ Queue = (*AmqpPublisher)(nil)
