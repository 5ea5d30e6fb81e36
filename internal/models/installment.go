package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the lifecycle state of an installment plan
type InstallmentStatus string

const (
	InstallmentStatusPending  InstallmentStatus = "pending"
	InstallmentStatusRepaying InstallmentStatus = "repaying"
	InstallmentStatusFinished InstallmentStatus = "finished"
)

// Installment represents a repayment plan attached to an order
type Installment struct {
	ID        int64             `json:"id"`
	No        string            `json:"no"`
	UserID    int64             `json:"user_id"`
	OrderID   int64             `json:"order_id"`
	Status    InstallmentStatus `json:"status"`
	Count     int               `json:"count"`
	FeeRate   decimal.Decimal   `json:"fee_rate"`
	FineRate  decimal.Decimal   `json:"fine_rate"` // percent per overdue day
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// InstallmentItem represents one scheduled payment within a plan
type InstallmentItem struct {
	ID            int64           `json:"id"`
	InstallmentID int64           `json:"installment_id"`
	Sequence      int             `json:"sequence"`
	DueDate       time.Time       `json:"due_date"`
	Base          decimal.Decimal `json:"base"`
	Fee           decimal.Decimal `json:"fee"`
	Fine          decimal.Decimal `json:"fine"`
	PaidAt        *time.Time      `json:"paid_at"`
}

// OverdueItem is an unpaid item of a repaying plan as read by the fine job.
// Money and rate columns are kept as stored text so that a corrupt row fails
// on its own instead of failing the whole batch scan.
type OverdueItem struct {
	ID            int64
	InstallmentID int64
	DueDate       time.Time
	Base          string
	Fee           string
	Fine          string
	FineRate      string
	UserEmail     string
	Username      string
}

// FineUpdate is a computed fine to be written back to an item
type FineUpdate struct {
	ItemID int64
	Fine   decimal.Decimal
}
