package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listify_echo/internal/models"
	"listify_echo/internal/testutil"
)

func TestCheckDeletion(t *testing.T) {
	db, balances := setup(t)
	accounts := NewAccountService(db, balances)
	payments := NewPaymentService(db, balances)
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	loner := testutil.CreateUser(t, db, "loner")
	testutil.CreateGroup(t, db, "WG", anna, ben)

	check, err := accounts.CheckDeletion(ctx, loner.ID)
	require.NoError(t, err)
	assert.Equal(t, DeletionOK, check.Status)

	testutil.CreateDebt(t, db, ben, anna, 20)

	check, err = accounts.CheckDeletion(ctx, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, DeletionBlocked, check.Status)
	assert.Contains(t, check.Message, "owe other members")

	check, err = accounts.CheckDeletion(ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, DeletionBlocked, check.Status)
	assert.Contains(t, check.Message, "20.00 €")

	_, err = payments.Settle(ctx, ben.ID, anna.ID)
	require.NoError(t, err)

	for _, u := range []*models.User{anna, ben} {
		check, err = accounts.CheckDeletion(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, DeletionOK, check.Status, u.Username)
	}

	_, err = accounts.CheckDeletion(ctx, 999)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestJudgeDebts(t *testing.T) {
	tests := []struct {
		name        string
		debts       []models.Debt
		wantStatus  DeletionStatus
		wantMessage string
	}{
		{"no debts", nil, DeletionOK, msgDeletionOK},
		{"owes money", []models.Debt{{FromUserID: 1, ToUserID: 2, Amount: 3}}, DeletionBlocked, msgDeletionOwesMoney},
		{"owes wins over owed", []models.Debt{{FromUserID: 2, ToUserID: 1, Amount: 50}, {FromUserID: 1, ToUserID: 3, Amount: 1}}, DeletionBlocked, msgDeletionOwesMoney},
		{"owed to user", []models.Debt{{FromUserID: 2, ToUserID: 1, Amount: 10}, {FromUserID: 3, ToUserID: 1, Amount: 5}}, DeletionBlocked, "Your account cannot be deleted because other members still owe you 15.00 €. Please resolve this before deleting your account."},
		{"split noise ignored", []models.Debt{{FromUserID: 1, ToUserID: 2, Amount: 0.004}}, DeletionOK, msgDeletionOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := judgeDebts(1, tt.debts)
			assert.Equal(t, tt.wantStatus, check.Status)
			assert.Equal(t, tt.wantMessage, check.Message)
		})
	}
}

func TestDeleteAccountBlocked(t *testing.T) {
	db, balances := setup(t)
	accounts := NewAccountService(db, balances)
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	testutil.CreateGroup(t, db, "WG", anna, ben)
	testutil.CreateDebt(t, db, ben, anna, 20)

	err := accounts.DeleteAccount(context.Background(), ben.ID)
	assert.True(t, IsKind(err, KindConflict))

	var count int64
	db.Model(&models.User{}).Where("id = ?", ben.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteAccountCascade(t *testing.T) {
	db, balances := setup(t)
	accounts := NewAccountService(db, balances)
	payments := NewPaymentService(db, balances)
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	carl := testutil.CreateUser(t, db, "carl")
	group := testutil.CreateGroup(t, db, "WG", anna, ben, carl)

	payment, err := payments.Create(ctx, CreatePaymentInput{Title: "Pizza", Amount: 30, PaidByID: anna.ID, SharedWith: []uint{anna.ID, ben.ID}})
	require.NoError(t, err)
	_, err = payments.Settle(ctx, ben.ID, anna.ID)
	require.NoError(t, err)

	msg := models.ChatMessage{Content: "hi", GroupID: group.ID, SenderID: &anna.ID, Type: models.MessageTypeText}
	require.NoError(t, db.Create(&msg).Error)

	private := models.ShoppingList{Title: "mine", OwnerEmail: anna.Email, IsPrivate: true}
	shared := models.ShoppingList{Title: "ours", OwnerEmail: anna.Email, GroupID: &group.ID}
	require.NoError(t, db.Create(&private).Error)
	require.NoError(t, db.Create(&shared).Error)
	require.NoError(t, db.Create(&models.Item{Name: "milk", ShoppingListID: private.ID, Status: models.ItemStatusOpen}).Error)
	sharedItem := models.Item{Name: "soap", ShoppingListID: shared.ID, Status: models.ItemStatusBought, AddedByID: &anna.ID, BoughtByID: &anna.ID}
	require.NoError(t, db.Create(&sharedItem).Error)
	require.NoError(t, db.Create(&models.ProductSuggestion{Name: "oat milk", CreatorEmail: anna.Email}).Error)
	require.NoError(t, db.Create(&models.UserNotifPreference{UserID: anna.ID, Channel: models.NotificationChannelNone}).Error)

	require.NoError(t, accounts.DeleteAccount(ctx, anna.ID))

	var count int64
	db.Model(&models.User{}).Where("id = ?", anna.ID).Count(&count)
	assert.Zero(t, count)

	// admin handed over to the next member by id
	var reloadedBen, reloadedCarl models.User
	require.NoError(t, db.First(&reloadedBen, ben.ID).Error)
	require.NoError(t, db.First(&reloadedCarl, carl.ID).Error)
	assert.Equal(t, models.PermissionAdmin, reloadedBen.Permission)
	assert.Equal(t, models.PermissionMember, reloadedCarl.Permission)

	var reloadedMsg models.ChatMessage
	require.NoError(t, db.First(&reloadedMsg, msg.ID).Error)
	assert.Nil(t, reloadedMsg.SenderID)

	var reloadedPayment models.Payment
	require.NoError(t, db.First(&reloadedPayment, payment.ID).Error)
	assert.Nil(t, reloadedPayment.PaidByID)

	db.Model(&models.ShoppingList{}).Where("id = ?", private.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.ShoppingList{}).Where("id = ?", shared.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var reloadedItem models.Item
	require.NoError(t, db.First(&reloadedItem, sharedItem.ID).Error)
	assert.Nil(t, reloadedItem.AddedByID)
	assert.Nil(t, reloadedItem.BoughtByID)

	db.Model(&models.ProductSuggestion{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.UserNotifPreference{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.PaymentShare{}).Where("user_id = ?", anna.ID).Count(&count)
	assert.Zero(t, count)
}
