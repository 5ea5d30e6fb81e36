package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/shop-service/internal/models"
)

const orderColumns = `id, no, user_id, address, total_amount, remark, paid_at, payment_method, payment_no,
		refund_status, refund_no, closed, reviewed, ship_status, ship_data, extra, created_at, updated_at`

// OrderNoExists reports whether an order number is already taken
func (r *Repository) OrderNoExists(ctx context.Context, no string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM shop.orders WHERE no = $1)`, no).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order no: %w", err)
	}
	return exists, nil
}

// RefundNoExists reports whether a refund number is already taken
func (r *Repository) RefundNoExists(ctx context.Context, no string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM shop.orders WHERE refund_no = $1)`, no).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check refund no: %w", err)
	}
	return exists, nil
}

// CreateOrder inserts an order whose number has already been assigned
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO shop.orders (no, user_id, address, total_amount, remark, refund_status, ship_status,
			closed, reviewed, extra, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, false, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		order.No, order.UserID, nullJSON(order.Address), order.TotalAmount, order.Remark,
		order.RefundStatus, order.ShipStatus, nullJSON(order.Extra),
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("order %s: %w", order.No, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindOrderByID retrieves an order by id
func (r *Repository) FindOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM shop.orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

// MarkOrderPaid records a payment for an unpaid order. It reports false when
// the order was already paid or does not exist.
func (r *Repository) MarkOrderPaid(ctx context.Context, no, method, paymentNo string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE shop.orders
		SET paid_at = $1, payment_method = $2, payment_no = $3, updated_at = CURRENT_TIMESTAMP
		WHERE no = $4 AND paid_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, paidAt, method, paymentNo, no)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	return n > 0, nil
}

// ApplyRefund moves a paid order with a pending refund to applied
func (r *Repository) ApplyRefund(ctx context.Context, orderID int64, refundNo string, extra []byte) (bool, error) {
	query := `
		UPDATE shop.orders
		SET refund_status = $1, refund_no = $2, extra = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND refund_status = $5 AND paid_at IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query,
		models.RefundStatusApplied, refundNo, nullJSON(extra), orderID, models.RefundStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to apply refund: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to apply refund: %w", err)
	}
	return n > 0, nil
}

// UpdateRefundStatus sets the refund status of the order carrying refundNo
func (r *Repository) UpdateRefundStatus(ctx context.Context, refundNo string, status models.RefundStatus) (bool, error) {
	query := `
		UPDATE shop.orders
		SET refund_status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE refund_no = $2`
	res, err := r.db.ExecContext(ctx, query, status, refundNo)
	if err != nil {
		return false, fmt.Errorf("failed to update refund status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update refund status: %w", err)
	}
	return n > 0, nil
}

func scanOrder(row *sql.Row) (*models.Order, error) {
	o := &models.Order{}
	var (
		address, shipData, extra         []byte
		remark, method, paymentNo, refNo sql.NullString
		paidAt                           sql.NullTime
	)
	err := row.Scan(&o.ID, &o.No, &o.UserID, &address, &o.TotalAmount, &remark, &paidAt, &method, &paymentNo,
		&o.RefundStatus, &refNo, &o.Closed, &o.Reviewed, &o.ShipStatus, &shipData, &extra, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Address = address
	o.ShipData = shipData
	o.Extra = extra
	o.Remark = remark.String
	o.PaymentMethod = method.String
	o.PaymentNo = paymentNo.String
	o.RefundNo = refNo.String
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	return o, nil
}

// nullJSON stores empty documents as NULL
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
