package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultReindexQueue = "rag.document.reindex"

// ReindexMessage asks the reconciler to push a document's chunks again.
type ReindexMessage struct {
	DocumentID uint `json:"document_id"`
}

type ReindexPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewReindexPublisher(conn *amqp.Connection, queueName string) *ReindexPublisher {
	if queueName == "" {
		queueName = DefaultReindexQueue
	}
	return &ReindexPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ReindexPublisher) PublishReindex(ctx context.Context, documentID uint) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(ReindexMessage{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("marshal reindex payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish reindex message failed: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable queue shared by publisher and consumer.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return nil
}

// DecodeReindexMessage parses a queue payload.
func DecodeReindexMessage(body []byte) (ReindexMessage, error) {
	var msg ReindexMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("decode reindex message failed: %w", err)
	}
	if msg.DocumentID == 0 {
		return msg, fmt.Errorf("decode reindex message failed: missing document_id")
	}
	return msg, nil
}
