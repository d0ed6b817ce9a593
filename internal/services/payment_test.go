package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listify_echo/internal/models"
	"listify_echo/internal/testutil"
)

func TestSplitDebts(t *testing.T) {
	tests := []struct {
		name         string
		payer        uint
		amount       float64
		participants []uint
		wantDebtors  []uint
		wantEach     float64
	}{
		{"payer included", 1, 100, []uint{1, 2, 3}, []uint{2, 3}, 100.0 / 3},
		{"payer excluded", 1, 90, []uint{2, 3}, []uint{2, 3}, 45},
		{"only payer", 1, 50, []uint{1}, nil, 0},
		{"nobody", 1, 50, nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debts := SplitDebts(tt.payer, tt.amount, tt.participants)
			var debtors []uint
			for _, d := range debts {
				debtors = append(debtors, d.FromUserID)
				assert.Equal(t, tt.payer, d.ToUserID)
				assert.NotEqual(t, tt.payer, d.FromUserID)
				assert.InDelta(t, tt.wantEach, d.Amount, 1e-9)
			}
			assert.Equal(t, tt.wantDebtors, debtors)
		})
	}
}

func TestPaymentCreate(t *testing.T) {
	db, balances := setup(t)
	svc := NewPaymentService(db, balances)
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	carl := testutil.CreateUser(t, db, "carl")
	group := testutil.CreateGroup(t, db, "WG", anna, ben, carl)

	payment, err := svc.Create(ctx, CreatePaymentInput{
		Title:      "Groceries",
		Amount:     100,
		PaidByID:   anna.ID,
		SharedWith: []uint{anna.ID, ben.ID, carl.ID, ben.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, &group.ID, payment.GroupID)
	assert.Len(t, payment.Shares, 3)
	assert.False(t, payment.Date.IsZero())

	var debts []models.Debt
	require.NoError(t, db.Order("from_user_id").Find(&debts).Error)
	require.Len(t, debts, 2)
	for _, d := range debts {
		assert.Equal(t, anna.ID, d.ToUserID)
		assert.InDelta(t, 33.333333, d.Amount, 1e-5)
		assert.Equal(t, "Groceries", d.Reason)
		assert.Equal(t, &payment.ID, d.PaymentID)
	}

	summary, err := balances.Summarize(ctx, anna.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, summary.TotalOwesYou, 0.01)
	assert.Zero(t, summary.TotalYouOwe)
}

func TestPaymentCreateValidation(t *testing.T) {
	db, balances := setup(t)
	svc := NewPaymentService(db, balances)
	anna := testutil.CreateUser(t, db, "anna")

	_, err := svc.Create(context.Background(), CreatePaymentInput{Title: " ", Amount: 0, PaidByID: anna.ID})
	require.Error(t, err)
	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, KindValidation, domainErr.Kind)
	assert.Len(t, domainErr.Details, 3)
}

func TestPaymentCreateUnknownParticipantRollsBack(t *testing.T) {
	db, balances := setup(t)
	svc := NewPaymentService(db, balances)
	anna := testutil.CreateUser(t, db, "anna")

	_, err := svc.Create(context.Background(), CreatePaymentInput{
		Title: "Pizza", Amount: 30, PaidByID: anna.ID, SharedWith: []uint{anna.ID, 999},
	})
	assert.True(t, IsKind(err, KindNotFound))

	var payments, debts int64
	db.Model(&models.Payment{}).Count(&payments)
	db.Model(&models.Debt{}).Count(&debts)
	assert.Zero(t, payments)
	assert.Zero(t, debts)

	_, err = svc.Create(context.Background(), CreatePaymentInput{Title: "Pizza", Amount: 30, PaidByID: 999, SharedWith: []uint{anna.ID}})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestPaymentDeleteRemovesDebtsAndShares(t *testing.T) {
	db, balances := setup(t)
	svc := NewPaymentService(db, balances)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	testutil.CreateGroup(t, db, "WG", anna, ben)

	payment, err := svc.Create(ctx, CreatePaymentInput{Title: "Internet", Amount: 40, PaidByID: anna.ID, SharedWith: []uint{anna.ID, ben.ID}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, payment.ID))

	var debts, shares int64
	db.Model(&models.Debt{}).Count(&debts)
	db.Model(&models.PaymentShare{}).Count(&shares)
	assert.Zero(t, debts)
	assert.Zero(t, shares)

	assert.True(t, IsKind(svc.Delete(ctx, payment.ID), KindNotFound))
}

func TestPaymentListAndSummary(t *testing.T) {
	db, balances := setup(t)
	svc := NewPaymentService(db, balances)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	loner := testutil.CreateUser(t, db, "loner")
	testutil.CreateGroup(t, db, "WG", anna, ben)

	for _, title := range []string{"first", "second"} {
		_, err := svc.Create(ctx, CreatePaymentInput{Title: title, Amount: 10, PaidByID: ben.ID, SharedWith: []uint{anna.ID, ben.ID}})
		require.NoError(t, err)
	}

	payments, err := svc.ListForUser(ctx, anna.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "second", payments[0].Title)
	require.NotNil(t, payments[0].PaidBy)
	assert.Equal(t, "ben", payments[0].PaidBy.Username)

	empty, err := svc.ListForUser(ctx, loner.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	summary, err := svc.Summary(ctx, anna.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, summary.TotalYouOwe, 1e-9)
	assert.Len(t, summary.RecentPayments, 2)
}

func TestSettle(t *testing.T) {
	db, balances := setup(t)
	svc := NewPaymentService(db, balances)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	carl := testutil.CreateUser(t, db, "carl")
	testutil.CreateGroup(t, db, "WG", anna, ben, carl)

	testutil.CreateDebt(t, db, ben, anna, 20)
	testutil.CreateDebt(t, db, anna, ben, 5)
	testutil.CreateDebt(t, db, carl, anna, 7)

	removed, err := svc.Settle(ctx, ben.ID, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var left []models.Debt
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, carl.ID, left[0].FromUserID)

	_, err = svc.Settle(ctx, anna.ID, anna.ID)
	assert.True(t, IsKind(err, KindBadRequest))
	_, err = svc.Settle(ctx, anna.ID, 999)
	assert.True(t, IsKind(err, KindNotFound))
}
