package models

import (
	"time"
)

// Payment is an expense paid by one user and shared with others
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title    string    `gorm:"type:varchar(255)" json:"title"`
	Amount   float64   `gorm:"type:decimal(15,2)" json:"amount"`
	Date     time.Time `gorm:"index" json:"date"`
	PaidByID *uint     `gorm:"index" json:"paid_by_id"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	ImageURL string    `gorm:"type:text" json:"image_url,omitempty"`

	// Relationships
	PaidBy *User          `gorm:"foreignKey:PaidByID" json:"paid_by,omitempty"`
	Shares []PaymentShare `gorm:"foreignKey:PaymentID" json:"shared_with,omitempty"`
}

// PaymentShare records that a user takes part in splitting a payment
type PaymentShare struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	PaymentID uint `gorm:"index;not null" json:"payment_id"`
	UserID    uint `gorm:"index;not null" json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
