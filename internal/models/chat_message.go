package models

import (
	"time"
)

// MessageType distinguishes plain chat messages from polls
type MessageType string

const (
	MessageTypeText MessageType = "TEXT"
	MessageTypePoll MessageType = "POLL"
)

// ParseMessageType falls back to TEXT for anything unknown
func ParseMessageType(s string) MessageType {
	switch MessageType(s) {
	case MessageTypePoll:
		return MessageTypePoll
	default:
		return MessageTypeText
	}
}

// ChatMessage is a message posted into a group chat
type ChatMessage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Content   string      `gorm:"type:text" json:"content"`
	Timestamp time.Time   `gorm:"index" json:"timestamp"`
	Type      MessageType `gorm:"type:varchar(10);default:'TEXT'" json:"type"`
	SenderID  *uint       `gorm:"index" json:"sender_id"`
	GroupID   uint        `gorm:"index;not null" json:"group_id"`
	Poll      *Poll       `gorm:"serializer:json" json:"metadata,omitempty"`

	// Relationships
	Sender *User `gorm:"foreignKey:SenderID" json:"-"`
}
