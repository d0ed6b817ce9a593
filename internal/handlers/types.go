package handlers

import (
	"time"

	"listify_echo/internal/models"
	"listify_echo/internal/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreatePaymentRequest struct {
	Title    string    `json:"title"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	ImageURL string    `json:"image_url"`
	// PaidByID defaults to the caller
	PaidByID   *uint  `json:"paid_by_id"`
	SharedWith []uint `json:"shared_with"`
}

type AvatarRequest struct {
	AvatarURL string `json:"avatar_url"`
}

type PaypalRequest struct {
	PaypalEmail string `json:"paypal_email"`
}

type UsernameRequest struct {
	Username string `json:"username"`
}

// PhoneRequest sets the number personal WhatsApp reminders go to
type PhoneRequest struct {
	Phone string `json:"phone"`
}

type PreferenceRequest struct {
	Channel            models.NotificationChannel `json:"channel"`
	WhatsappTargetType string                     `json:"whatsapp_target_type"`
	WhatsappGroupID    string                     `json:"whatsapp_group_id"`
}

type AddItemsRequest struct {
	ShoppingListID uint                 `json:"shopping_list_id"`
	Items          []services.ItemInput `json:"items"`
}

type SuggestionRequest struct {
	Name string `json:"name"`
}

// MessageResponse is returned by endpoints without a resource to show
type MessageResponse struct {
	Message string `json:"message"`
}
