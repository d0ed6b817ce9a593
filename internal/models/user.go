package models

import (
	"time"
)

// Permission is the role a user holds inside their group
type Permission string

const (
	PermissionNone   Permission = ""
	PermissionMember Permission = "member"
	PermissionAdmin  Permission = "admin"
)

// User represents a user in the system
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username     string     `gorm:"type:varchar(255)" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255)" json:"-"`
	AvatarURL    string     `gorm:"type:text" json:"avatar_url"`
	PaypalEmail  string     `gorm:"type:varchar(255)" json:"paypal_email"`
	Phone        string     `gorm:"type:varchar(50)" json:"phone"`
	GroupID      *uint      `gorm:"index" json:"group_id"`
	Permission   Permission `gorm:"type:varchar(20);default:''" json:"permission"`

	// Relationships
	Group *Group `gorm:"foreignKey:GroupID" json:"-"`
}

// IsAdmin reports whether the user administers their group
func (u User) IsAdmin() bool {
	return u.Permission == PermissionAdmin
}

// InGroup reports whether the user is a member of the given group
func (u User) InGroup(groupID uint) bool {
	return u.GroupID != nil && *u.GroupID == groupID
}
