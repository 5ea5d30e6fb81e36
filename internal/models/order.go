package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus is the refund lifecycle state of an order
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusApplied    RefundStatus = "applied"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusSuccess    RefundStatus = "success"
	RefundStatusFailed     RefundStatus = "failed"
)

// ShipStatus is the delivery state of an order
type ShipStatus string

const (
	ShipStatusPending   ShipStatus = "pending"
	ShipStatusDelivered ShipStatus = "delivered"
	ShipStatusReceived  ShipStatus = "received"
)

// RefundStatusLabels maps refund statuses to display labels
var RefundStatusLabels = map[RefundStatus]string{
	RefundStatusPending:    "Not refunded",
	RefundStatusApplied:    "Refund requested",
	RefundStatusProcessing: "Refund in progress",
	RefundStatusSuccess:    "Refunded",
	RefundStatusFailed:     "Refund failed",
}

// ShipStatusLabels maps ship statuses to display labels
var ShipStatusLabels = map[ShipStatus]string{
	ShipStatusPending:   "Not shipped",
	ShipStatusDelivered: "Shipped",
	ShipStatusReceived:  "Received",
}

// Order represents a customer order
type Order struct {
	ID            int64           `json:"id"`
	No            string          `json:"no"`
	UserID        int64           `json:"user_id"`
	Address       json.RawMessage `json:"address"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Remark        string          `json:"remark"`
	PaidAt        *time.Time      `json:"paid_at"`
	PaymentMethod string          `json:"payment_method"`
	PaymentNo     string          `json:"payment_no"`
	RefundStatus  RefundStatus    `json:"refund_status"`
	RefundNo      string          `json:"refund_no"`
	Closed        bool            `json:"closed"`
	Reviewed      bool            `json:"reviewed"`
	ShipStatus    ShipStatus      `json:"ship_status"`
	ShipData      json.RawMessage `json:"ship_data"`
	Extra         json.RawMessage `json:"extra"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Paid reports whether the order has been paid
func (o *Order) Paid() bool {
	return o.PaidAt != nil
}
