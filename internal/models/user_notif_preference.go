package models

import (
	"time"
)

type NotificationChannel string

const (
	NotificationChannelEmail    NotificationChannel = "email"
	NotificationChannelWhatsapp NotificationChannel = "whatsapp"
	NotificationChannelNone     NotificationChannel = "none"
)

// Valid reports whether c is a known channel
func (c NotificationChannel) Valid() bool {
	switch c {
	case NotificationChannelEmail, NotificationChannelWhatsapp, NotificationChannelNone:
		return true
	}
	return false
}

const (
	WhatsappTargetTypePersonal = "personal"
	WhatsappTargetTypeGroup    = "group"
)

// UserNotifPreference decides how debt reminders reach a user
type UserNotifPreference struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"uniqueIndex" json:"user_id"`

	Channel NotificationChannel `gorm:"type:varchar(20);default:'email'" json:"channel"`

	// WhatsApp specific options
	WhatsappTargetType string `gorm:"type:varchar(20);default:'personal'" json:"whatsapp_target_type"` // 'personal' or 'group'
	WhatsappGroupID    string `gorm:"type:varchar(100)" json:"whatsapp_group_id"`
}

// DefaultNotifPreference is used for users who never saved one
func DefaultNotifPreference(userID uint) UserNotifPreference {
	return UserNotifPreference{
		UserID:             userID,
		Channel:            NotificationChannelEmail,
		WhatsappTargetType: WhatsappTargetTypePersonal,
	}
}
