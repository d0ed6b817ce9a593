package models

import (
	"strings"
	"time"
)

// ItemStatus represents whether an item still needs to be bought
type ItemStatus string

const (
	ItemStatusOpen   ItemStatus = "OPEN"
	ItemStatusBought ItemStatus = "BOUGHT"
)

// ParseItemStatus accepts a status case-insensitively
func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case ItemStatusOpen:
		return ItemStatusOpen, true
	case ItemStatusBought:
		return ItemStatusBought, true
	}
	return "", false
}

// ShoppingList is either private to its owner or shared with a group
type ShoppingList struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title      string `gorm:"type:varchar(255)" json:"title"`
	OwnerEmail string `gorm:"type:varchar(255);index" json:"owner_email,omitempty"`
	IsPrivate  bool   `gorm:"default:false" json:"is_private"`
	GroupID    *uint  `gorm:"index" json:"group_id"`

	// Relationships
	Items []Item `gorm:"foreignKey:ShoppingListID" json:"items,omitempty"`
}

// Item is an entry on a shopping list
type Item struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name           string     `gorm:"type:varchar(255)" json:"name"`
	Quantity       int        `json:"quantity"`
	Status         ItemStatus `gorm:"type:varchar(10);default:'OPEN';index" json:"status"`
	ShoppingListID uint       `gorm:"index;not null" json:"shopping_list_id"`
	AddedByID      *uint      `gorm:"index" json:"added_by_id"`
	BoughtByID     *uint      `gorm:"index" json:"bought_by_id"`
}

// ProductSuggestion is a product name offered while typing an item
type ProductSuggestion struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name         string `gorm:"type:varchar(255);index" json:"name"`
	CreatorEmail string `gorm:"type:varchar(255);index" json:"creator_email,omitempty"`
}
