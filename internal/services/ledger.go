package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/models"
)

// LedgerStore persists debts. Debts are only ever created and deleted.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// WithTx returns a store bound to a running transaction
func (s *LedgerStore) WithTx(tx *gorm.DB) *LedgerStore {
	return &LedgerStore{db: tx}
}

// Record appends debts. Self-debts and non-positive amounts are rejected.
func (s *LedgerStore) Record(ctx context.Context, debts ...models.Debt) error {
	if len(debts) == 0 {
		return nil
	}
	now := time.Now()
	for i := range debts {
		d := &debts[i]
		if d.FromUserID == d.ToUserID {
			return BadRequest("a debt cannot be owed to oneself")
		}
		if d.Amount <= 0 {
			return BadRequest("debt amount must be positive")
		}
		if d.Timestamp.IsZero() {
			d.Timestamp = now
		}
	}
	if err := s.db.WithContext(ctx).Create(&debts).Error; err != nil {
		return fmt.Errorf("failed to record debts: %w", err)
	}
	return nil
}

// Delete removes one debt by id
func (s *LedgerStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Debt{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete debt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("debt %d not found", id)
	}
	return nil
}

// DeleteByPayment removes every debt derived from a payment
func (s *LedgerStore) DeleteByPayment(ctx context.Context, paymentID uint) error {
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).Delete(&models.Debt{}).Error; err != nil {
		return fmt.Errorf("failed to delete payment debts: %w", err)
	}
	return nil
}

// DeleteBetween removes debts in both directions between two users and
// returns how many rows were removed
func (s *LedgerStore) DeleteBetween(ctx context.Context, a, b uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Delete(&models.Debt{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to settle debts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteInvolving removes every debt where the user is either party
func (s *LedgerStore) DeleteInvolving(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Where("from_user_id = ? OR to_user_id = ?", userID, userID).Delete(&models.Debt{}).Error; err != nil {
		return fmt.Errorf("failed to delete user debts: %w", err)
	}
	return nil
}

// Involving lists debts where the user is debtor or creditor
func (s *LedgerStore) Involving(ctx context.Context, userID uint) ([]models.Debt, error) {
	var debts []models.Debt
	if err := s.db.WithContext(ctx).Where("from_user_id = ? OR to_user_id = ?", userID, userID).Order("id").Find(&debts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user debts: %w", err)
	}
	return debts, nil
}

// ByGroup lists every debt of a group
func (s *LedgerStore) ByGroup(ctx context.Context, groupID uint) ([]models.Debt, error) {
	var debts []models.Debt
	if err := s.db.WithContext(ctx).Where("group_id = ?", groupID).Order("id").Find(&debts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch group debts: %w", err)
	}
	return debts, nil
}
