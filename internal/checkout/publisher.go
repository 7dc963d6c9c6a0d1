package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	DefaultTopic = "storefront-checkout"

	EventCompleted = "checkout.completed"
	EventPartial   = "checkout.partial"
)

type EventItem struct {
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	PurchaseID int64           `json:"purchase_id"`
}

// Event describes a checkout that created at least one order.
type Event struct {
	Type            string          `json:"event_type"`
	CheckoutID      string          `json:"checkout_id"`
	UserID          int64           `json:"user_id"`
	Status          Status          `json:"status"`
	Items           []EventItem     `json:"items"`
	FailedProductID int64           `json:"failed_product_id,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

func newEvent(id *domain.Identity, res Result, partial *PartialError, now time.Time) Event {
	ev := Event{
		Type:       EventCompleted,
		CheckoutID: res.CheckoutID,
		UserID:     id.User.ID,
		Status:     res.Status,
		Subtotal:   res.Subtotal,
		Discount:   res.Discount,
		Total:      res.Total,
		OccurredAt: now.UTC(),
	}
	if res.Status == StatusPartial && partial != nil {
		ev.Type = EventPartial
		ev.FailedProductID = partial.Failed.ProductID
	}
	for _, s := range res.Submitted {
		ev.Items = append(ev.Items, EventItem{
			ProductID:  s.Item.ProductID,
			Quantity:   s.Item.Quantity,
			UnitPrice:  s.Item.UnitPrice,
			PurchaseID: s.PurchaseID,
		})
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// KafkaPublisher writes checkout events keyed by user id so one user's events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal checkout event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.UserID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
