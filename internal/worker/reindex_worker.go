package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"newsrag/internal/platform/rabbitmq"
)

type DocumentReindexer interface {
	ReindexDocument(ctx context.Context, documentID uint) error
}

// ReindexWorker consumes reindex requests published after a failed vector
// upsert. Failed deliveries are dropped; the periodic sweep picks them up.
type ReindexWorker struct {
	conn      *amqp.Connection
	reindexer DocumentReindexer
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReindexWorker(conn *amqp.Connection, reindexer DocumentReindexer, queueName string) *ReindexWorker {
	if queueName == "" {
		queueName = rabbitmq.DefaultReindexQueue
	}
	return &ReindexWorker{
		conn:      conn,
		reindexer: reindexer,
		queueName: queueName,
	}
}

func (w *ReindexWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					logrus.WithError(err).Warn("reindex worker failed")
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *ReindexWorker) handle(ctx context.Context, body []byte) error {
	msg, err := rabbitmq.DecodeReindexMessage(body)
	if err != nil {
		return err
	}
	return w.reindexer.ReindexDocument(ctx, msg.DocumentID)
}

func (w *ReindexWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
