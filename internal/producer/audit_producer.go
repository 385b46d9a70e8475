package producer

import (
	"context"
	"encoding/json"
	"time"

	"inventory-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// AuditProducer публикует записи журнала склада в Kafka для внешних
// потребителей (сверка, аналитика). Best-effort: движок не ждёт подтверждений
// дольше таймаута и не откатывает операции из-за шины.
type AuditProducer struct {
	writer *kafka.Writer
}

func NewAuditProducer(brokers []string, topic string) *AuditProducer {
	return &AuditProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

type auditEvent struct {
	Seq           int64     `json:"seq,omitempty"`
	Op            string    `json:"op"`
	ItemID        string    `json:"item_id"`
	OnHandDelta   int64     `json:"on_hand_delta"`
	ReservedDelta int64     `json:"reserved_delta"`
	ReservationID string    `json:"reservation_id,omitempty"`
	ResultVersion int64     `json:"result_version"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (p *AuditProducer) Publish(ctx context.Context, entries []models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		ev := auditEvent{
			Seq:           e.Seq,
			Op:            string(e.Op),
			ItemID:        e.ItemID.String(),
			OnHandDelta:   e.OnHandDelta,
			ReservedDelta: e.ReservedDelta,
			ReservationID: e.ReservationID,
			ResultVersion: e.ResultVersion,
			OccurredAt:    e.CreatedAt,
		}
		value, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			// ключ — item id: события одной позиции идут в одну партицию по порядку
			Key:   []byte(ev.ItemID),
			Value: value,
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *AuditProducer) Close() error {
	return p.writer.Close()
}
