package service

import (
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/shopspring/decimal"
)

const (
	OrderEventCreated       = "order.created"
	OrderEventPaid          = "order.paid"
	OrderEventCancelled     = "order.cancelled"
	OrderEventStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type          string              `json:"type"`
	OrderID       uint                `json:"order_id"`
	UserID        uint                `json:"user_id"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// OrderEventPublisher receives events after the change has been committed.
type OrderEventPublisher interface {
	PublishOrderEvent(event OrderEvent)
}

type noopPublisher struct{}

func (noopPublisher) PublishOrderEvent(OrderEvent) {}

func newOrderEvent(eventType string, order *model.Order) OrderEvent {
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}
