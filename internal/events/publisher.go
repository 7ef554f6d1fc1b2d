// Package events publishes order lifecycle messages to RabbitMQ for
// external consumers such as the kitchen/bar display. Publishing is
// best-effort: a broker outage must never fail an already-committed order.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

const (
	exchange       = "pos.orders"
	publishTimeout = 5 * time.Second
)

// Publisher holds one AMQP connection and channel. Publish calls are
// serialized; the amqp channel is not safe for concurrent use.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex
}

// Dial connects to the broker and declares the durable topic exchange.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

type orderMessage struct {
	OrderID     uint               `json:"order_id"`
	TableID     uint               `json:"table_id"`
	Status      models.OrderStatus `json:"status"`
	FromStatus  models.OrderStatus `json:"from_status,omitempty"`
	BillingMode models.BillingMode `json:"billing_mode"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []itemMessage      `json:"items"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

type itemMessage struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderCreated announces a freshly opened order under the key
// "order.created".
func (p *Publisher) OrderCreated(order *models.Order) {
	p.publish("order.created", buildMessage(order, ""))
}

// OrderStatusChanged announces a transition under "order.status.<status>" so
// consumers can bind to the phases they care about.
func (p *Publisher) OrderStatusChanged(order *models.Order, from models.OrderStatus) {
	p.publish("order.status."+string(order.Status), buildMessage(order, from))
}

func buildMessage(order *models.Order, from models.OrderStatus) orderMessage {
	msg := orderMessage{
		OrderID:     order.ID,
		TableID:     order.TableID,
		Status:      order.Status,
		FromStatus:  from,
		BillingMode: order.BillingMode,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
	for _, it := range order.Items {
		msg.Items = append(msg.Items, itemMessage{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return msg
}

func (p *Publisher) publish(key string, msg orderMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("events: marshal %s: %v", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Printf("events: publish %s: %v", key, err)
	}
}
