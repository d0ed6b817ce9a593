package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/metrics"
	"listify_echo/internal/models"
)

const recentPaymentsLimit = 10

// CreatePaymentInput describes an expense to split equally
type CreatePaymentInput struct {
	Title      string
	Amount     float64
	Date       time.Time
	PaidByID   uint
	ImageURL   string
	SharedWith []uint
}

// PaymentSummary is the balance overview shown next to the payment list
type PaymentSummary struct {
	BalanceSummary
	RecentPayments []models.Payment `json:"recent_payments"`
}

type PaymentService struct {
	db       *gorm.DB
	ledger   *LedgerStore
	balances *BalanceService
}

func NewPaymentService(db *gorm.DB, balances *BalanceService) *PaymentService {
	return &PaymentService{db: db, ledger: NewLedgerStore(db), balances: balances}
}

// SplitDebts derives the debts of a payment: every participant other than the
// payer owes the payer amount/len(participants). No remainder is redistributed.
func SplitDebts(payerID uint, amount float64, participants []uint) []models.Debt {
	if len(participants) == 0 {
		return nil
	}
	perUser := amount / float64(len(participants))
	debts := make([]models.Debt, 0, len(participants))
	for _, uid := range participants {
		if uid == payerID {
			continue
		}
		debts = append(debts, models.Debt{FromUserID: uid, ToUserID: payerID, Amount: perUser})
	}
	return debts
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Create stores a payment, its shares and the derived debts atomically
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*models.Payment, error) {
	in.Title = strings.TrimSpace(in.Title)
	participants := uniqueIDs(in.SharedWith)

	var v validator
	v.check(in.Title != "", "title is required")
	v.check(in.Amount > 0, "amount must be positive")
	v.check(len(participants) > 0, "must be shared with at least one person")
	if err := v.err(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payer models.User
		if err := tx.First(&payer, in.PaidByID).Error; err != nil {
			return notFoundOr(err, "user", in.PaidByID)
		}

		var found int64
		if err := tx.Model(&models.User{}).Where("id IN ?", participants).Count(&found).Error; err != nil {
			return fmt.Errorf("failed to check participants: %w", err)
		}
		if int(found) != len(participants) {
			return NotFound("one or more shared-with users not found")
		}

		payment = models.Payment{
			Title:    in.Title,
			Amount:   in.Amount,
			Date:     in.Date,
			PaidByID: &payer.ID,
			GroupID:  payer.GroupID,
			ImageURL: in.ImageURL,
		}
		for _, uid := range participants {
			payment.Shares = append(payment.Shares, models.PaymentShare{UserID: uid})
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		debts := SplitDebts(payer.ID, in.Amount, participants)
		for i := range debts {
			debts[i].Reason = payment.Title
			debts[i].GroupID = payer.GroupID
			debts[i].PaymentID = &payment.ID
		}
		return s.ledger.WithTx(tx).Record(ctx, debts...)
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentsCreated.Inc()
	s.balances.InvalidateGroup(ctx, payment.GroupID)
	slog.Info("payment created", "payment_id", payment.ID, "paid_by", in.PaidByID, "participants", len(participants))
	return &payment, nil
}

// ListForUser lists the payments of the user's group, newest first
func (s *PaymentService) ListForUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	if user.GroupID == nil {
		return []models.Payment{}, nil
	}
	return s.listByGroup(ctx, *user.GroupID, 0)
}

func (s *PaymentService) listByGroup(ctx context.Context, groupID uint, limit int) ([]models.Payment, error) {
	q := s.db.WithContext(ctx).
		Preload("PaidBy").
		Preload("Shares.User").
		Where("group_id = ?", groupID).
		Order("date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}
	return payments, nil
}

// Delete removes a payment together with its debts and shares
func (s *PaymentService) Delete(ctx context.Context, id uint) error {
	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, id).Error; err != nil {
			return notFoundOr(err, "payment", id)
		}
		if err := s.ledger.WithTx(tx).DeleteByPayment(ctx, id); err != nil {
			return err
		}
		if err := tx.Where("payment_id = ?", id).Delete(&models.PaymentShare{}).Error; err != nil {
			return fmt.Errorf("failed to delete payment shares: %w", err)
		}
		if err := tx.Delete(&payment).Error; err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.balances.InvalidateGroup(ctx, payment.GroupID)
	slog.Info("payment deleted", "payment_id", id)
	return nil
}

// Summary combines the user's balances with the latest group payments
func (s *PaymentService) Summary(ctx context.Context, userID uint) (*PaymentSummary, error) {
	balances, err := s.balances.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &PaymentSummary{BalanceSummary: *balances, RecentPayments: []models.Payment{}}
	if balances.GroupID != nil {
		summary.RecentPayments, err = s.listByGroup(ctx, *balances.GroupID, recentPaymentsLimit)
		if err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// Settle deletes every debt between two users, in both directions
func (s *PaymentService) Settle(ctx context.Context, fromUserID, toUserID uint) (int64, error) {
	if fromUserID == toUserID {
		return 0, BadRequest("cannot settle debts with oneself")
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", []uint{fromUserID, toUserID}).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	if len(users) != 2 {
		return 0, NotFound("user not found")
	}

	removed, err := s.ledger.DeleteBetween(ctx, fromUserID, toUserID)
	if err != nil {
		return 0, err
	}

	metrics.DebtsSettled.Add(float64(removed))
	ids := []uint{fromUserID, toUserID}
	s.balances.Invalidate(ctx, ids...)
	slog.Info("debts settled", "from", fromUserID, "to", toUserID, "removed", removed)
	return removed, nil
}
