package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"listify_echo/internal/metrics"
	"listify_echo/internal/models"
)

// DeletionStatus is the verdict of the account deletion guard
type DeletionStatus string

const (
	DeletionOK DeletionStatus = "OK"
	// DeletionWarning is part of the API but the guard never returns it:
	// money owed to the user blocks deletion just like money the user owes.
	DeletionWarning DeletionStatus = "WARNING"
	DeletionBlocked DeletionStatus = "BLOCKED"
)

// balanceEpsilon absorbs float noise from equal-split division
const balanceEpsilon = 0.01

const (
	msgDeletionOK          = "Your account can be deleted safely."
	msgDeletionOwesMoney   = "Your account cannot be deleted because you still owe other members money. Please settle your debts first."
	msgDeletionOwedToYouFm = "Your account cannot be deleted because other members still owe you %.2f €. Please resolve this before deleting your account."
)

// DeletionCheck is the result of CheckDeletion
type DeletionCheck struct {
	Status  DeletionStatus `json:"status"`
	Message string         `json:"message"`
}

type AccountService struct {
	db       *gorm.DB
	balances *BalanceService
}

func NewAccountService(db *gorm.DB, balances *BalanceService) *AccountService {
	return &AccountService{db: db, balances: balances}
}

// CheckDeletion evaluates whether the user may delete their account
func (s *AccountService) CheckDeletion(ctx context.Context, userID uint) (*DeletionCheck, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	check, err := evaluateDeletion(ctx, s.db, user)
	if err != nil {
		return nil, err
	}
	metrics.DeletionChecks.WithLabelValues(string(check.Status)).Inc()
	return check, nil
}

func evaluateDeletion(ctx context.Context, db *gorm.DB, user models.User) (*DeletionCheck, error) {
	if user.GroupID == nil {
		return &DeletionCheck{Status: DeletionOK, Message: msgDeletionOK}, nil
	}

	debts, err := NewLedgerStore(db).Involving(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return judgeDebts(user.ID, debts), nil
}

// judgeDebts applies the guard rules in order: own debts block first, then
// money owed to the user
func judgeDebts(userID uint, debts []models.Debt) *DeletionCheck {
	var totalYouOwe, totalOwedToYou float64
	for _, d := range debts {
		if d.FromUserID == userID {
			totalYouOwe += d.Amount
		}
		if d.ToUserID == userID {
			totalOwedToYou += d.Amount
		}
	}

	if totalYouOwe > balanceEpsilon {
		return &DeletionCheck{Status: DeletionBlocked, Message: msgDeletionOwesMoney}
	}
	if totalOwedToYou > balanceEpsilon {
		return &DeletionCheck{Status: DeletionBlocked, Message: fmt.Sprintf(msgDeletionOwedToYouFm, totalOwedToYou)}
	}
	return &DeletionCheck{Status: DeletionOK, Message: msgDeletionOK}
}

// DeleteAccount removes the user after re-checking the guard inside the same
// transaction. History rows keep existing with the user reference cleared.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	var groupID *uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user", userID)
		}
		groupID = user.GroupID

		check, err := evaluateDeletion(ctx, tx, user)
		if err != nil {
			return err
		}
		if check.Status == DeletionBlocked {
			return Conflict(check.Message)
		}

		if user.GroupID != nil {
			if err := leaveGroup(tx, &user); err != nil {
				return err
			}
		}
		return purgeUser(ctx, tx, user)
	})
	if err != nil {
		return err
	}

	s.balances.Invalidate(ctx, userID)
	s.balances.InvalidateGroup(ctx, groupID)
	slog.Info("account deleted", "user_id", userID)
	return nil
}

// purgeUser anonymizes history rows and deletes everything owned by the user
func purgeUser(ctx context.Context, tx *gorm.DB, user models.User) error {
	nullify := []struct {
		model  interface{}
		column string
	}{
		{&models.Item{}, "added_by_id"},
		{&models.Item{}, "bought_by_id"},
		{&models.ChatMessage{}, "sender_id"},
		{&models.Payment{}, "paid_by_id"},
	}
	for _, n := range nullify {
		if err := tx.Model(n.model).Where(n.column+" = ?", user.ID).Update(n.column, nil).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", n.column, err)
		}
	}

	if err := tx.Where("user_id = ?", user.ID).Delete(&models.PaymentShare{}).Error; err != nil {
		return fmt.Errorf("failed to delete payment shares: %w", err)
	}
	if err := NewLedgerStore(tx).DeleteInvolving(ctx, user.ID); err != nil {
		return err
	}
	if err := tx.Where("creator_email = ?", user.Email).Delete(&models.ProductSuggestion{}).Error; err != nil {
		return fmt.Errorf("failed to delete product suggestions: %w", err)
	}

	privateLists := tx.Model(&models.ShoppingList{}).Select("id").Where("owner_email = ? AND is_private = ?", user.Email, true)
	if err := tx.Where("shopping_list_id IN (?)", privateLists).Delete(&models.Item{}).Error; err != nil {
		return fmt.Errorf("failed to delete private list items: %w", err)
	}
	if err := tx.Where("owner_email = ? AND is_private = ?", user.Email, true).Delete(&models.ShoppingList{}).Error; err != nil {
		return fmt.Errorf("failed to delete private lists: %w", err)
	}
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserNotifPreference{}).Error; err != nil {
		return fmt.Errorf("failed to delete notification preference: %w", err)
	}

	if err := tx.Delete(&user).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
