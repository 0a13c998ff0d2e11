package events

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalEnvelope(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	publisher := NewKafkaPublisher([]string{"localhost:9092"}, "checkout-service", log)

	payload := CheckoutCompletedPayload{
		FlowID:      "flow-1",
		CartID:      "cart-1",
		CustomerID:  "customer-1",
		OrderID:     "order-1",
		OrderNumber: "ORD-20250615-000001",
		Total:       decimal.NewFromInt(450),
	}

	msg, err := publisher.marshal(EventCheckoutCompleted, payload.OrderID, payload)
	require.NoError(t, err)

	// Ключ партиционирования — id заказа: события одного заказа сохраняют порядок.
	assert.Equal(t, []byte("order-1"), msg.Key)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, EventCheckoutCompleted, envelope.EventType)
	assert.Equal(t, 1, envelope.EventVersion)
	assert.Equal(t, "checkout-service", envelope.Producer)
	assert.False(t, envelope.OccurredAt.IsZero())

	var decoded CheckoutCompletedPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &decoded))
	assert.Equal(t, payload.FlowID, decoded.FlowID)
	assert.Equal(t, payload.OrderNumber, decoded.OrderNumber)
	assert.True(t, payload.Total.Equal(decoded.Total))
}
