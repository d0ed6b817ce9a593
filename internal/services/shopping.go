package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"listify_echo/internal/models"
)

const suggestionLimit = 3

// ItemInput describes an item to put on a list
type ItemInput struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
	AddedByID  *uint  `json:"added_by_id"`
	BoughtByID *uint  `json:"bought_by_id"`
}

// CreateListInput describes a new shopping list with its initial items
type CreateListInput struct {
	Title      string      `json:"title"`
	GroupID    *uint       `json:"group_id"`
	IsPrivate  bool        `json:"is_private"`
	OwnerEmail string      `json:"owner_email"`
	Items      []ItemInput `json:"items"`
}

type ShoppingService struct {
	db *gorm.DB
}

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db}
}

func itemStatus(raw string) (models.ItemStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return models.ItemStatusOpen, nil
	}
	status, ok := models.ParseItemStatus(raw)
	if !ok {
		return "", Validation(fmt.Sprintf("unknown item status %q", raw))
	}
	return status, nil
}

// CreateWithItems stores a list and its items together. A group id that does
// not exist is ignored.
func (s *ShoppingService) CreateWithItems(ctx context.Context, in CreateListInput) (*models.ShoppingList, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Validation("title is required")
	}

	list := models.ShoppingList{
		Title:      title,
		OwnerEmail: normalizeEmail(in.OwnerEmail),
		IsPrivate:  in.IsPrivate,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.GroupID != nil {
			var group models.Group
			err := tx.First(&group, *in.GroupID).Error
			switch {
			case err == nil:
				list.GroupID = &group.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				slog.Warn("shopping list group not found", "group_id", *in.GroupID)
			default:
				return fmt.Errorf("failed to fetch group: %w", err)
			}
		}

		for _, it := range in.Items {
			status, err := itemStatus(it.Status)
			if err != nil {
				return err
			}
			list.Items = append(list.Items, models.Item{
				Name:       strings.TrimSpace(it.Name),
				Quantity:   it.Quantity,
				Status:     status,
				AddedByID:  existingUser(tx, it.AddedByID),
				BoughtByID: existingUser(tx, it.BoughtByID),
			})
		}
		if err := tx.Create(&list).Error; err != nil {
			return fmt.Errorf("failed to create shopping list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("shopping list created", "list_id", list.ID, "items", len(list.Items))
	return &list, nil
}

// existingUser keeps id only when it refers to a stored user
func existingUser(tx *gorm.DB, id *uint) *uint {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", *id).Count(&count).Error; err != nil || count == 0 {
		return nil
	}
	return id
}

// Get returns a list with its items
func (s *ShoppingService) Get(ctx context.Context, id uint) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := s.db.WithContext(ctx).Preload("Items", orderByID).First(&list, id).Error; err != nil {
		return nil, notFoundOr(err, "shopping list", id)
	}
	return &list, nil
}

// All returns every list
func (s *ShoppingService) All(ctx context.Context) ([]models.ShoppingList, error) {
	return s.find(ctx, s.db.WithContext(ctx))
}

// Own returns the private lists owned by email
func (s *ShoppingService) Own(ctx context.Context, email string) ([]models.ShoppingList, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("owner_email = ? AND is_private = ?", normalizeEmail(email), true))
}

// Shared returns the lists of a group
func (s *ShoppingService) Shared(ctx context.Context, groupID uint) ([]models.ShoppingList, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("group_id = ? AND is_private = ?", groupID, false))
}

// VisibleTo returns the user's private lists and the shared lists of their group
func (s *ShoppingService) VisibleTo(ctx context.Context, user models.User) ([]models.ShoppingList, error) {
	q := s.db.WithContext(ctx).Where("is_private = ? AND owner_email = ?", true, user.Email)
	if user.GroupID != nil {
		q = q.Or("is_private = ? AND group_id = ?", false, *user.GroupID)
	}
	return s.find(ctx, q)
}

// WithItemsFor applies the same visibility for a user looked up by email; an
// unknown email sees nothing
func (s *ShoppingService) WithItemsFor(ctx context.Context, email string) ([]models.ShoppingList, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.ShoppingList{}, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return s.VisibleTo(ctx, user)
}

func (s *ShoppingService) find(_ context.Context, q *gorm.DB) ([]models.ShoppingList, error) {
	lists := []models.ShoppingList{}
	if err := q.Preload("Items", orderByID).Order("id").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch shopping lists: %w", err)
	}
	return lists, nil
}

// Delete removes a list and its items
func (s *ShoppingService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.ShoppingList
		if err := tx.First(&list, id).Error; err != nil {
			return notFoundOr(err, "shopping list", id)
		}
		if err := tx.Where("shopping_list_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("failed to delete items: %w", err)
		}
		if err := tx.Delete(&list).Error; err != nil {
			return fmt.Errorf("failed to delete shopping list: %w", err)
		}
		return nil
	})
}

// AddItems appends open items added by actor to a list
func (s *ShoppingService) AddItems(ctx context.Context, listID uint, items []ItemInput, actorID uint) ([]models.Item, error) {
	var list models.ShoppingList
	if err := s.db.WithContext(ctx).First(&list, listID).Error; err != nil {
		return nil, notFoundOr(err, "shopping list", listID)
	}
	if len(items) == 0 {
		return []models.Item{}, nil
	}

	created := make([]models.Item, 0, len(items))
	for _, it := range items {
		created = append(created, models.Item{
			Name:           strings.TrimSpace(it.Name),
			Quantity:       it.Quantity,
			Status:         models.ItemStatusOpen,
			ShoppingListID: list.ID,
			AddedByID:      &actorID,
		})
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, fmt.Errorf("failed to add items: %w", err)
	}
	slog.Info("items added", "list_id", listID, "count", len(created))
	return created, nil
}

// FrequentSuggestions proposes the names the user buys most often on their
// private lists that are not already open on one of them
func (s *ShoppingService) FrequentSuggestions(ctx context.Context, user models.User) ([]string, error) {
	privateLists := s.db.Model(&models.ShoppingList{}).Select("id").Where("owner_email = ? AND is_private = ?", user.Email, true)

	var openNames []string
	if err := s.db.WithContext(ctx).Model(&models.Item{}).
		Where("shopping_list_id IN (?) AND status = ?", privateLists, models.ItemStatusOpen).
		Pluck("name", &openNames).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch open items: %w", err)
	}
	onList := make(map[string]bool, len(openNames))
	for _, n := range openNames {
		onList[strings.ToLower(n)] = true
	}

	var frequent []string
	if err := s.db.WithContext(ctx).Model(&models.Item{}).
		Select("name").
		Where("shopping_list_id IN (?) AND status = ?", privateLists, models.ItemStatusBought).
		Group("name").
		Order("COUNT(name) DESC, name").
		Pluck("name", &frequent).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch frequent items: %w", err)
	}

	suggestions := []string{}
	for _, name := range frequent {
		if onList[strings.ToLower(name)] {
			continue
		}
		suggestions = append(suggestions, name)
		if len(suggestions) == suggestionLimit {
			break
		}
	}
	return suggestions, nil
}
