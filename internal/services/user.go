package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"listify_echo/internal/models"
)

type UserService struct {
	db       *gorm.DB
	balances *BalanceService
}

func NewUserService(db *gorm.DB, balances *BalanceService) *UserService {
	return &UserService{db: db, balances: balances}
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user", email)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (s *UserService) update(ctx context.Context, id uint, column string, value interface{}) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update(column, value).Error; err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}
	return s.Get(ctx, id)
}

// UpdateAvatar stores a new avatar URL
func (s *UserService) UpdateAvatar(ctx context.Context, id uint, avatarURL string) (*models.User, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return nil, BadRequest("avatar url must not be empty")
	}
	return s.updateShown(ctx, id, "avatar_url", avatarURL)
}

// UpdatePaypal stores the PayPal address used to receive settlements
func (s *UserService) UpdatePaypal(ctx context.Context, id uint, paypal string) (*models.User, error) {
	return s.update(ctx, id, "paypal_email", strings.TrimSpace(paypal))
}

// UpdateUsername renames a user
func (s *UserService) UpdateUsername(ctx context.Context, id uint, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, BadRequest("username must not be empty")
	}
	return s.updateShown(ctx, id, "username", username)
}

// updateShown changes a field that group members see in their balance
// summaries and drops the cached summaries of the user's group
func (s *UserService) updateShown(ctx context.Context, id uint, column string, value interface{}) (*models.User, error) {
	user, err := s.update(ctx, id, column, value)
	if err != nil {
		return nil, err
	}
	s.balances.InvalidateGroup(ctx, user.GroupID)
	return user, nil
}

// UpdatePhone stores the number used for WhatsApp reminders
func (s *UserService) UpdatePhone(ctx context.Context, id uint, phone string) (*models.User, error) {
	return s.update(ctx, id, "phone", strings.TrimSpace(phone))
}

// Preference returns the user's notification preference or the default one
func (s *UserService) Preference(ctx context.Context, userID uint) (*models.UserNotifPreference, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	pref, err := loadPreference(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func loadPreference(db *gorm.DB, userID uint) (models.UserNotifPreference, error) {
	var pref models.UserNotifPreference
	err := db.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultNotifPreference(userID), nil
	}
	if err != nil {
		return pref, fmt.Errorf("failed to fetch preference: %w", err)
	}
	return pref, nil
}

// SavePreference upserts the user's notification preference
func (s *UserService) SavePreference(ctx context.Context, userID uint, in models.UserNotifPreference) (*models.UserNotifPreference, error) {
	if !in.Channel.Valid() {
		return nil, Validation(fmt.Sprintf("unknown channel %q", in.Channel))
	}
	if in.WhatsappTargetType == "" {
		in.WhatsappTargetType = models.WhatsappTargetTypePersonal
	}
	if in.WhatsappTargetType != models.WhatsappTargetTypePersonal && in.WhatsappTargetType != models.WhatsappTargetTypeGroup {
		return nil, Validation(fmt.Sprintf("unknown whatsapp target type %q", in.WhatsappTargetType))
	}
	if in.Channel == models.NotificationChannelWhatsapp && in.WhatsappTargetType == models.WhatsappTargetTypeGroup && in.WhatsappGroupID == "" {
		return nil, Validation("whatsapp group id is required for group target")
	}

	pref, err := s.Preference(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref.Channel = in.Channel
	pref.WhatsappTargetType = in.WhatsappTargetType
	pref.WhatsappGroupID = in.WhatsappGroupID

	if err := s.db.WithContext(ctx).Save(pref).Error; err != nil {
		return nil, fmt.Errorf("failed to save preference: %w", err)
	}
	return pref, nil
}
