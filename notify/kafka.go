package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"storefront/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes bills to a topic; a mail worker downstream sends them.
type KafkaNotifier struct {
	writer messageWriter
}

// BillCommand is the message value published per bill.
type BillCommand struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	HTML     string            `json:"html"`
	Items    []models.BillLine `json:"items"`
	Total    decimal.Decimal   `json:"total"`
	Comment  string            `json:"comment,omitempty"`
	IssuedAt time.Time         `json:"issued_at"`
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
	}}
}

func (n *KafkaNotifier) SendBill(ctx context.Context, bill Bill) error {
	html, err := RenderHTML(bill)
	if err != nil {
		return fmt.Errorf("render bill: %w", err)
	}
	payload, err := json.Marshal(BillCommand{
		To:       bill.To,
		Subject:  Subject,
		HTML:     html,
		Items:    bill.Items,
		Total:    bill.Total,
		Comment:  bill.Comment,
		IssuedAt: bill.IssuedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal bill command: %w", err)
	}

	// keyed by recipient so one customer's bills stay ordered
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(bill.To), Value: payload}); err != nil {
		return fmt.Errorf("publish bill: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
