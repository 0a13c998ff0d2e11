// Package events публикует доменные события чекаута в Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicCheckoutCompleted  = "checkout.completed"
	TopicCheckoutRolledBack = "checkout.rolled_back"
)

const (
	EventCheckoutCompleted  = "CheckoutCompleted"
	EventCheckoutRolledBack = "CheckoutRolledBack"
)

// Envelope — общая обертка события. Ключ партиционирования — id заказа, чтобы события
// одного заказа сохраняли порядок.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type CheckoutCompletedPayload struct {
	FlowID        string          `json:"flow_id"`
	CartID        string          `json:"cart_id"`
	CustomerID    string          `json:"customer_id"`
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	ReservationID string          `json:"reservation_id,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
}

type CheckoutRolledBackPayload struct {
	FlowID     string `json:"flow_id"`
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id"`
	OrderID    string `json:"order_id,omitempty"`
	FailedStep string `json:"failed_step"`
	Reason     string `json:"reason"`
}
