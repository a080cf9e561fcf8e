package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragchat/internal/model"
	"ragchat/internal/platform/rabbitmq"
)

// LedgerStore persists ingestion records.
type LedgerStore interface {
	Create(rec *model.IngestionRecord) error
}

// IngestionLedgerWorker drains the ledger queue into the database. Malformed
// messages and failed inserts are dropped without requeue.
type IngestionLedgerWorker struct {
	conn      *amqp.Connection
	repo      LedgerStore
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestionLedgerWorker(conn *amqp.Connection, repo LedgerStore, queueName string, log *zap.Logger) *IngestionLedgerWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestionLedgerWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		log:       log.With(zap.String("queue", queueName)),
	}
}

func (w *IngestionLedgerWorker) Start(ctx context.Context) error {
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

	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker prefetch failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"ragchat-ledger",
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

		w.log.Info("ledger worker started")
		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("ledger deliveries channel closed")
					return
				}
				w.process(d)
			}
		}
	}()

	return nil
}

func (w *IngestionLedgerWorker) process(d amqp.Delivery) {
	rec, err := rabbitmq.DecodeRecord(d.Body)
	if err != nil {
		w.log.Warn("decode ledger message failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.repo.Create(&rec); err != nil {
		w.log.Error("persist ledger record failed", zap.String("source", rec.Source), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	w.log.Debug("ledger record stored", zap.String("source", rec.Source), zap.Int("chunks", rec.Chunks))
	_ = d.Ack(false)
}

func (w *IngestionLedgerWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
