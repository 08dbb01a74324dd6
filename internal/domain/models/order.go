package models

import "time"

// OrderStatus is the persisted lifecycle state of a dispatch order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
)

// Order is a dispatch request that must be fulfilled before DeadlineTime on
// Date.
type Order struct {
	ID                string      `bson:"_id,omitempty" json:"id"`
	ClientID          string      `bson:"client_id" json:"client_id"`
	Date              string      `bson:"date" json:"date"`
	DeadlineTime      string      `bson:"deadline_time" json:"deadline_time"`
	RequestedQuantity int         `bson:"requested_quantity" json:"requested_quantity"`
	Status            OrderStatus `bson:"status" json:"status"`
	Deleted           bool        `bson:"deleted" json:"-"`
	CreatedBy         string      `bson:"created_by" json:"created_by"`
	CreatedAt         time.Time   `bson:"created_at" json:"created_at"`
}

// Completed reports whether the order reached its terminal state.
func (o Order) Completed() bool {
	return o.Status == OrderCompleted
}
