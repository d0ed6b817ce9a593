package models

import (
	"time"
)

// Debt is an unsettled one-way obligation from one user to another.
// Rows are never updated; settling deletes them.
type Debt struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	FromUserID uint      `gorm:"index;not null" json:"from_user_id"`
	ToUserID   uint      `gorm:"index;not null" json:"to_user_id"`
	Amount     float64   `json:"amount"`
	Reason     string    `gorm:"type:text" json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
	GroupID    *uint     `gorm:"index" json:"group_id"`
	PaymentID  *uint     `gorm:"index" json:"payment_id"`

	// Relationships
	From *User `gorm:"foreignKey:FromUserID" json:"-"`
	To   *User `gorm:"foreignKey:ToUserID" json:"-"`
}
