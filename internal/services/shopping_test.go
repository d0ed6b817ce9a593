package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listify_echo/internal/models"
	"listify_echo/internal/testutil"
)

func TestCreateWithItems(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewShoppingService(db)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")
	group := testutil.CreateGroup(t, db, "WG", anna)

	list, err := svc.CreateWithItems(ctx, CreateListInput{
		Title:      "Weekend",
		GroupID:    &group.ID,
		OwnerEmail: "Anna@Example.com",
		Items: []ItemInput{
			{Name: "milk", Quantity: 2},
			{Name: "bread", Quantity: 1, Status: "bought", AddedByID: &anna.ID, BoughtByID: uintPtr(999)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", list.OwnerEmail)
	assert.Equal(t, &group.ID, list.GroupID)
	require.Len(t, list.Items, 2)
	assert.Equal(t, models.ItemStatusOpen, list.Items[0].Status)
	assert.Equal(t, models.ItemStatusBought, list.Items[1].Status)
	assert.Equal(t, &anna.ID, list.Items[1].AddedByID)
	assert.Nil(t, list.Items[1].BoughtByID)

	orphan, err := svc.CreateWithItems(ctx, CreateListInput{Title: "Orphan", GroupID: uintPtr(999)})
	require.NoError(t, err)
	assert.Nil(t, orphan.GroupID)

	_, err = svc.CreateWithItems(ctx, CreateListInput{Title: "Bad", Items: []ItemInput{{Name: "x", Status: "maybe"}}})
	assert.True(t, IsKind(err, KindValidation))
	_, err = svc.CreateWithItems(ctx, CreateListInput{Title: " "})
	assert.True(t, IsKind(err, KindValidation))

	var lists int64
	db.Model(&models.ShoppingList{}).Count(&lists)
	assert.Equal(t, int64(2), lists)
}

func TestListVisibility(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewShoppingService(db)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	carl := testutil.CreateUser(t, db, "carl")
	wg := testutil.CreateGroup(t, db, "WG", anna, ben)
	other := testutil.CreateGroup(t, db, "Other", carl)

	create := func(title, owner string, private bool, groupID *uint) uint {
		l, err := svc.CreateWithItems(ctx, CreateListInput{Title: title, OwnerEmail: owner, IsPrivate: private, GroupID: groupID})
		require.NoError(t, err)
		return l.ID
	}
	annaPrivate := create("anna private", anna.Email, true, nil)
	benPrivate := create("ben private", ben.Email, true, nil)
	wgShared := create("wg shared", anna.Email, false, &wg.ID)
	create("other shared", carl.Email, false, &other.ID)

	ids := func(lists []models.ShoppingList) []uint {
		out := []uint{}
		for _, l := range lists {
			out = append(out, l.ID)
		}
		return out
	}

	visible, err := svc.VisibleTo(ctx, *anna)
	require.NoError(t, err)
	assert.Equal(t, []uint{annaPrivate, wgShared}, ids(visible))

	visible, err = svc.WithItemsFor(ctx, ben.Email)
	require.NoError(t, err)
	assert.Equal(t, []uint{benPrivate, wgShared}, ids(visible))

	visible, err = svc.WithItemsFor(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, visible)

	own, err := svc.Own(ctx, anna.Email)
	require.NoError(t, err)
	assert.Equal(t, []uint{annaPrivate}, ids(own))

	shared, err := svc.Shared(ctx, wg.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{wgShared}, ids(shared))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestAddItemsAndDeleteList(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewShoppingService(db)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")

	list, err := svc.CreateWithItems(ctx, CreateListInput{Title: "Week", OwnerEmail: anna.Email, IsPrivate: true})
	require.NoError(t, err)

	items, err := svc.AddItems(ctx, list.ID, []ItemInput{{Name: " eggs ", Quantity: 6, Status: "BOUGHT"}, {Name: "salt"}}, anna.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, models.ItemStatusOpen, it.Status)
		assert.Equal(t, &anna.ID, it.AddedByID)
	}
	assert.Equal(t, "eggs", items[0].Name)

	_, err = svc.AddItems(ctx, 999, []ItemInput{{Name: "x"}}, anna.ID)
	assert.True(t, IsKind(err, KindNotFound))

	require.NoError(t, svc.Delete(ctx, list.ID))
	var count int64
	db.Model(&models.Item{}).Count(&count)
	assert.Zero(t, count)
	assert.True(t, IsKind(svc.Delete(ctx, list.ID), KindNotFound))
	_, err = svc.Get(ctx, list.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestFrequentSuggestions(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewShoppingService(db)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")

	bought := func(names ...string) []ItemInput {
		out := make([]ItemInput, 0, len(names))
		for _, n := range names {
			out = append(out, ItemInput{Name: n, Status: "BOUGHT"})
		}
		return out
	}

	_, err := svc.CreateWithItems(ctx, CreateListInput{Title: "w1", OwnerEmail: anna.Email, IsPrivate: true,
		Items: append(bought("milk", "milk", "milk", "bread", "bread", "eggs", "eggs", "coffee", "tea"), ItemInput{Name: "MILK"})})
	require.NoError(t, err)
	_, err = svc.CreateWithItems(ctx, CreateListInput{Title: "w2", OwnerEmail: anna.Email, IsPrivate: true,
		Items: bought("coffee")})
	require.NoError(t, err)
	// other users' lists do not count
	_, err = svc.CreateWithItems(ctx, CreateListInput{Title: "ben", OwnerEmail: ben.Email, IsPrivate: true,
		Items: bought("tea", "tea", "tea", "tea")})
	require.NoError(t, err)

	suggestions, err := svc.FrequentSuggestions(ctx, *anna)
	require.NoError(t, err)
	assert.Equal(t, []string{"bread", "coffee", "eggs"}, suggestions)

	forBen, err := svc.FrequentSuggestions(ctx, *ben)
	require.NoError(t, err)
	assert.Equal(t, []string{"tea"}, forBen)
}

func TestItemService(t *testing.T) {
	db := testutil.NewDB(t)
	lists := NewShoppingService(db)
	svc := NewItemService(db)
	ctx := context.Background()
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")

	list, err := lists.CreateWithItems(ctx, CreateListInput{Title: "Week"})
	require.NoError(t, err)

	item, err := svc.Create(ctx, CreateItemInput{ItemInput: ItemInput{Name: "rice", Quantity: 1}, ShoppingListID: list.ID}, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusOpen, item.Status)
	assert.Equal(t, &anna.ID, item.AddedByID)

	_, err = svc.Create(ctx, CreateItemInput{ItemInput: ItemInput{Name: "x"}, ShoppingListID: 999}, anna.ID)
	assert.True(t, IsKind(err, KindBadRequest))

	updated, err := svc.Update(ctx, item.ID, UpdateItemInput{Name: "basmati", Quantity: 2, Status: "bought"}, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, "basmati", updated.Name)
	assert.Equal(t, models.ItemStatusBought, updated.Status)
	assert.Equal(t, &ben.ID, updated.BoughtByID)

	_, err = svc.Update(ctx, 999, UpdateItemInput{Name: "x"}, ben.ID)
	assert.True(t, IsKind(err, KindNotFound))
	_, err = svc.Update(ctx, item.ID, UpdateItemInput{Name: "x", Status: "lost"}, ben.ID)
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.Create(ctx, CreateItemInput{ItemInput: ItemInput{Name: "beans"}, ShoppingListID: list.ID}, anna.ID)
	require.NoError(t, err)

	all, err := svc.ByList(ctx, list.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	open, err := svc.ByList(ctx, list.ID, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "beans", open[0].Name)

	require.NoError(t, svc.Delete(ctx, item.ID))
	assert.True(t, IsKind(svc.Delete(ctx, item.ID), KindNotFound))
}

func TestPurgeBought(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewItemService(db)
	list := models.ShoppingList{Title: "old"}
	require.NoError(t, db.Create(&list).Error)

	old := models.Item{Name: "old", Status: models.ItemStatusBought, ShoppingListID: list.ID}
	fresh := models.Item{Name: "fresh", Status: models.ItemStatusBought, ShoppingListID: list.ID}
	open := models.Item{Name: "open", Status: models.ItemStatusOpen, ShoppingListID: list.ID}
	for _, it := range []*models.Item{&old, &fresh, &open} {
		require.NoError(t, db.Create(it).Error)
	}
	require.NoError(t, db.Model(&models.Item{}).Where("id IN ?", []uint{old.ID, open.ID}).
		UpdateColumn("updated_at", daysAgo(40)).Error)

	removed, err := svc.PurgeBought(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var names []string
	db.Model(&models.Item{}).Order("id").Pluck("name", &names)
	assert.Equal(t, []string{"fresh", "open"}, names)
}

func TestSuggestionSearch(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSuggestionService(db)
	ctx := context.Background()

	for _, n := range []string{"Oat Milk", "Milk", "Bread"} {
		_, err := svc.Create(ctx, n, "anna@example.com")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, " ", "anna@example.com")
	assert.True(t, IsKind(err, KindValidation))

	names := func(q string) []string {
		res, err := svc.Search(ctx, q)
		require.NoError(t, err)
		out := []string{}
		for _, s := range res {
			out = append(out, s.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Milk", "Oat Milk"}, names("MIL"))
	assert.Equal(t, []string{"Bread", "Milk", "Oat Milk"}, names(""))
	assert.Empty(t, names("cheese"))
}
