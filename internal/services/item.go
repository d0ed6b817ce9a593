package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"listify_echo/internal/models"
)

// CreateItemInput adds a single item to a list
type CreateItemInput struct {
	ItemInput
	ShoppingListID uint `json:"shopping_list_id"`
}

// UpdateItemInput replaces the editable fields of an item
type UpdateItemInput struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

type ItemService struct {
	db *gorm.DB
}

func NewItemService(db *gorm.DB) *ItemService {
	return &ItemService{db: db}
}

// Create stores an item added by actor
func (s *ItemService) Create(ctx context.Context, in CreateItemInput, actorID uint) (*models.Item, error) {
	var list models.ShoppingList
	if err := s.db.WithContext(ctx).First(&list, in.ShoppingListID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, BadRequest("invalid shopping list id %d", in.ShoppingListID)
		}
		return nil, fmt.Errorf("failed to fetch shopping list: %w", err)
	}
	status, err := itemStatus(in.Status)
	if err != nil {
		return nil, err
	}

	item := models.Item{
		Name:           strings.TrimSpace(in.Name),
		Quantity:       in.Quantity,
		Status:         status,
		ShoppingListID: list.ID,
		AddedByID:      &actorID,
		BoughtByID:     existingUser(s.db.WithContext(ctx), in.BoughtByID),
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &item, nil
}

// Update changes an item; the acting user is recorded as its buyer
func (s *ItemService) Update(ctx context.Context, id uint, in UpdateItemInput, actorID uint) (*models.Item, error) {
	status, err := itemStatus(in.Status)
	if err != nil {
		return nil, err
	}

	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFoundOr(err, "item", id)
	}
	item.Name = strings.TrimSpace(in.Name)
	item.Quantity = in.Quantity
	item.Status = status
	item.BoughtByID = &actorID

	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return &item, nil
}

func (s *ItemService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("item %d not found", id)
	}
	return nil
}

// ByList returns the items of a list, optionally only open ones
func (s *ItemService) ByList(ctx context.Context, listID uint, onlyOpen bool) ([]models.Item, error) {
	q := s.db.WithContext(ctx).Where("shopping_list_id = ?", listID)
	if onlyOpen {
		q = q.Where("status = ?", models.ItemStatusOpen)
	}
	items := []models.Item{}
	if err := q.Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	return items, nil
}

// PurgeBought deletes bought items last touched before the cutoff and returns how many went
func (s *ItemService) PurgeBought(ctx context.Context, olderThanDays int) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.ItemStatusBought, daysAgo(olderThanDays)).
		Delete(&models.Item{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge items: %w", res.Error)
	}
	return res.RowsAffected, nil
}
