package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"listify_echo/internal/auth"
	"listify_echo/internal/models"
)

// AuthResult is returned after a successful register or login
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthService struct {
	db  *gorm.DB
	jwt *auth.JWTManager
}

func NewAuthService(db *gorm.DB, jwt *auth.JWTManager) *AuthService {
	return &AuthService{db: db, jwt: jwt}
}

// RandomAvatarURL returns a DiceBear SVG avatar with a random 8 character seed
func RandomAvatarURL() string {
	return "https://api.dicebear.com/7.x/personas/svg?seed=" + uuid.NewString()[:8]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs a token for it
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	var v validator
	_, mailErr := mail.ParseAddress(email)
	v.check(email != "" && mailErr == nil, "a valid email is required")
	v.check(len(in.Password) >= auth.MinPasswordLength, auth.ErrWeakPassword.Error())
	if err := v.err(); err != nil {
		return nil, err
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, BadRequest("email already in use")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		AvatarURL:    RandomAvatarURL(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID)
	return &AuthResult{Token: token, User: &user}, nil
}

// Login verifies credentials and signs a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthorized("email is not registered")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, Unauthorized("wrong password")
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: &user}, nil
}
