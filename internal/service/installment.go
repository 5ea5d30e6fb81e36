package service

import (
	"context"
	"errors"

	"github.com/Dan9191/shop-service/internal/models"
	"github.com/Dan9191/shop-service/internal/repository"
	"github.com/shopspring/decimal"
)

// InstallmentView is a plan with its items and outstanding totals
type InstallmentView struct {
	*models.Installment
	Items       []models.InstallmentItem `json:"items"`
	TotalFine   decimal.Decimal          `json:"total_fine"`
	Outstanding decimal.Decimal          `json:"outstanding"` // unpaid base+fee+fine
}

// GetInstallment returns a plan of userID with its items
func (s *Service) GetInstallment(ctx context.Context, userID, installmentID int64) (*InstallmentView, error) {
	inst, err := s.repo.FindInstallment(ctx, installmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstallmentNotFound
		}
		return nil, err
	}
	if inst.UserID != userID {
		return nil, ErrInstallmentNotFound
	}

	items, err := s.repo.ListInstallmentItems(ctx, installmentID)
	if err != nil {
		return nil, err
	}

	view := &InstallmentView{Installment: inst, Items: items}
	for _, item := range items {
		view.TotalFine = view.TotalFine.Add(item.Fine)
		if item.PaidAt == nil {
			view.Outstanding = view.Outstanding.Add(item.Base).Add(item.Fee).Add(item.Fine)
		}
	}
	return view, nil
}
