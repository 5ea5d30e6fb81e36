package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/shop-service/internal/models"
	"github.com/Dan9191/shop-service/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// CalculateInstallmentFineTask is the scheduler name of the fine job
	CalculateInstallmentFineTask = "cron:calculate-installment-fine"

	// DefaultFineBatchSize bounds how many items are read and written per transaction
	DefaultFineBatchSize = 1000

	// installmentFineLockKey is the advisory lock key guarding fine runs
	installmentFineLockKey int64 = 0x66696e65
)

// FineStore is the persistence used by the fine calculator
type FineStore interface {
	ListOverdueItems(ctx context.Context, now time.Time, afterID int64, limit int) ([]models.OverdueItem, error)
	UpdateFines(ctx context.Context, updates []models.FineUpdate) error
	TryAdvisoryLock(ctx context.Context, key int64) (release func() error, ok bool, err error)
}

// FineNotifier tells a customer that an item started accruing a fine
type FineNotifier interface {
	SendFineNotice(to, username string, dueDate time.Time, total, fine decimal.Decimal) error
}

// FineRunStats summarizes one run of the calculator
type FineRunStats struct {
	Batches  int
	Scanned  int
	Updated  int
	Skipped  int
	Notified int
}

// FineCalculator computes late fees of overdue installment items
type FineCalculator struct {
	store     FineStore
	notifier  FineNotifier
	log       *logrus.Logger
	batchSize int
	now       func() time.Time
}

// NewFineCalculator initializes the calculator. notifier may be nil.
func NewFineCalculator(store FineStore, notifier FineNotifier, log *logrus.Logger, batchSize int) *FineCalculator {
	if batchSize <= 0 {
		batchSize = DefaultFineBatchSize
	}
	return &FineCalculator{
		store:     store,
		notifier:  notifier,
		log:       log,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run scans every unpaid item of a repaying plan due by now and overwrites
// its fine. Batches are committed one by one; a data access error aborts the
// run and leaves earlier batches in place. Items with unusable amounts are
// logged and skipped.
func (c *FineCalculator) Run(ctx context.Context) error {
	_, err := c.run(ctx)
	return err
}

func (c *FineCalculator) run(ctx context.Context) (FineRunStats, error) {
	var stats FineRunStats
	now := c.now()
	log := c.log.WithField("task", CalculateInstallmentFineTask)

	release, ok, err := c.store.TryAdvisoryLock(ctx, installmentFineLockKey)
	if err != nil {
		return stats, err
	}
	if !ok {
		log.Warn("Another fine calculation is running, skipping")
		return stats, nil
	}
	defer func() {
		if err := release(); err != nil {
			log.WithError(err).Error("Failed to release fine calculation lock")
		}
	}()

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		items, err := c.store.ListOverdueItems(ctx, now, afterID, c.batchSize)
		if err != nil {
			return stats, err
		}
		if len(items) == 0 {
			break
		}
		stats.Batches++
		stats.Scanned += len(items)

		updates := make([]models.FineUpdate, 0, len(items))
		var notices []fineNotice
		for _, item := range items {
			fine, total, err := computeFine(item, now)
			if err != nil {
				stats.Skipped++
				log.WithFields(logrus.Fields{
					"item_id":        item.ID,
					"installment_id": item.InstallmentID,
				}).WithError(err).Error("Failed to calculate installment fine")
				continue
			}
			updates = append(updates, models.FineUpdate{ItemID: item.ID, Fine: fine})
			if startedAccruing(item.Fine, fine) {
				notices = append(notices, fineNotice{item: item, total: total, fine: fine})
			}
		}

		if err := c.store.UpdateFines(ctx, updates); err != nil {
			return stats, err
		}
		stats.Updated += len(updates)
		stats.Notified += c.notify(log, notices)

		afterID = items[len(items)-1].ID
		if len(items) < c.batchSize {
			break
		}
	}

	log.WithFields(logrus.Fields{
		"batches":  stats.Batches,
		"scanned":  stats.Scanned,
		"updated":  stats.Updated,
		"skipped":  stats.Skipped,
		"notified": stats.Notified,
	}).Info("Installment fines calculated")
	return stats, nil
}

// computeFine returns the fine of item at now together with base+fee
func computeFine(item models.OverdueItem, now time.Time) (fine, total decimal.Decimal, err error) {
	base, err := utils.ParseAmount("base", item.Base)
	if err != nil {
		return fine, total, err
	}
	fee, err := utils.ParseAmount("fee", item.Fee)
	if err != nil {
		return fine, total, err
	}
	rate, err := utils.ParseAmount("fine_rate", item.FineRate)
	if err != nil {
		return fine, total, err
	}

	fine, err = utils.CalculateFine(base, fee, rate, utils.OverdueDays(item.DueDate, now))
	if err != nil {
		return fine, total, err
	}
	if fine.GreaterThan(utils.MaxFine) {
		return fine, total, fmt.Errorf("%w: fine %s out of range", utils.ErrInvalidAmount, fine)
	}
	return fine, base.Add(fee), nil
}

// startedAccruing reports a move from no fine to a positive one.
// An unreadable previous value counts as none.
func startedAccruing(previous string, fine decimal.Decimal) bool {
	if !fine.IsPositive() {
		return false
	}
	if previous == "" {
		return true
	}
	prev, err := decimal.NewFromString(previous)
	return err != nil || prev.IsZero()
}

type fineNotice struct {
	item  models.OverdueItem
	total decimal.Decimal
	fine  decimal.Decimal
}

func (c *FineCalculator) notify(log *logrus.Entry, notices []fineNotice) int {
	if c.notifier == nil {
		return 0
	}
	sent := 0
	for _, n := range notices {
		if n.item.UserEmail == "" {
			continue
		}
		err := c.notifier.SendFineNotice(n.item.UserEmail, n.item.Username, n.item.DueDate, n.total, n.fine)
		if err != nil {
			log.WithField("item_id", n.item.ID).WithError(err).Warn("Failed to send fine notice")
			continue
		}
		sent++
	}
	return sent
}
