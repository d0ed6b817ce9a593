package models

import (
	"time"
)

// Group is a household sharing lists, payments and a chat
type Group struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"type:varchar(255)" json:"name"`
	JoinCode string `gorm:"type:varchar(6);uniqueIndex" json:"join_code"`

	// Relationships
	Users []User `gorm:"foreignKey:GroupID" json:"users,omitempty"`
}
