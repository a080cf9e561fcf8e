package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ragchat/internal/model"
)

const defaultDialTimeout = 3 * time.Second

// IngestionPublisher sends ledger records to a durable queue.
type IngestionPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewIngestionPublisher(conn *amqp.Connection, queueName string) *IngestionPublisher {
	return &IngestionPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *IngestionPublisher) PublishIngestion(ctx context.Context, rec model.IngestionRecord) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	payload, err := EncodeRecord(rec)
	if err != nil {
		return err
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
			Timestamp:    rec.IngestedAt,
		},
	); err != nil {
		return fmt.Errorf("publish ingestion record failed: %w", err)
	}
	return nil
}

// EncodeRecord is the wire format shared with the ledger worker.
func EncodeRecord(rec model.IngestionRecord) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal ingestion record failed: %w", err)
	}
	return payload, nil
}

// DecodeRecord parses a message body produced by EncodeRecord. Server-side
// fields are cleared so the row gets a fresh primary key.
func DecodeRecord(body []byte) (model.IngestionRecord, error) {
	var rec model.IngestionRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return model.IngestionRecord{}, fmt.Errorf("unmarshal ingestion record failed: %w", err)
	}
	if rec.Source == "" {
		return model.IngestionRecord{}, fmt.Errorf("ingestion record without source")
	}
	rec.ID = 0
	rec.CreatedAt = time.Time{}
	return rec, nil
}

func dialTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
	}
	return defaultDialTimeout
}
