package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/shop-service/internal/models"
)

// ListOverdueItems returns up to limit unpaid items of repaying plans due at
// or before now, with id greater than afterID, ordered by id
func (r *Repository) ListOverdueItems(ctx context.Context, now time.Time, afterID int64, limit int) ([]models.OverdueItem, error) {
	query := `
		SELECT ii.id, ii.installment_id, ii.due_date, ii.base::text, ii.fee::text, ii.fine::text,
			i.fine_rate::text, u.email, u.username
		FROM shop.installment_items ii
		JOIN shop.installments i ON i.id = ii.installment_id
		JOIN shop.users u ON u.id = i.user_id
		WHERE i.status = $1
			AND ii.due_date <= $2
			AND ii.paid_at IS NULL
			AND ii.id > $3
		ORDER BY ii.id ASC
		LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, models.InstallmentStatusRepaying, now, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue items: %w", err)
	}
	defer rows.Close()

	items := make([]models.OverdueItem, 0, limit)
	for rows.Next() {
		var (
			item                  models.OverdueItem
			base, fee, fine, rate sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.InstallmentID, &item.DueDate, &base, &fee, &fine, &rate,
			&item.UserEmail, &item.Username); err != nil {
			return nil, fmt.Errorf("failed to scan overdue item: %w", err)
		}
		item.Base = base.String
		item.Fee = fee.String
		item.Fine = fine.String
		item.FineRate = rate.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overdue items: %w", err)
	}
	return items, nil
}

// UpdateFines writes the computed fines of one batch in a single transaction
func (r *Repository) UpdateFines(ctx context.Context, updates []models.FineUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin fine update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE shop.installment_items SET fine = $1 WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("failed to prepare fine update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Fine.StringFixed(2), u.ItemID); err != nil {
			return fmt.Errorf("failed to update fine of item %d: %w", u.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fine update: %w", err)
	}
	return nil
}

// FindInstallment retrieves an installment plan by id
func (r *Repository) FindInstallment(ctx context.Context, id int64) (*models.Installment, error) {
	inst := &models.Installment{}
	query := `
		SELECT id, no, user_id, order_id, status, count, fee_rate, fine_rate, created_at, updated_at
		FROM shop.installments
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&inst.ID, &inst.No, &inst.UserID, &inst.OrderID,
		&inst.Status, &inst.Count, &inst.FeeRate, &inst.FineRate, &inst.CreatedAt, &inst.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("installment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find installment: %w", err)
	}
	return inst, nil
}

// ListInstallmentItems returns the items of a plan in payment order
func (r *Repository) ListInstallmentItems(ctx context.Context, installmentID int64) ([]models.InstallmentItem, error) {
	query := `
		SELECT id, installment_id, sequence, due_date, base, fee, COALESCE(fine, 0), paid_at
		FROM shop.installment_items
		WHERE installment_id = $1
		ORDER BY sequence ASC`
	rows, err := r.db.QueryContext(ctx, query, installmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installment items: %w", err)
	}
	defer rows.Close()

	var items []models.InstallmentItem
	for rows.Next() {
		var (
			item   models.InstallmentItem
			paidAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.InstallmentID, &item.Sequence, &item.DueDate,
			&item.Base, &item.Fee, &item.Fine, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan installment item: %w", err)
		}
		if paidAt.Valid {
			item.PaidAt = &paidAt.Time
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installment items: %w", err)
	}
	return items, nil
}
