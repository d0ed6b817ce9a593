package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/models"
)

type SuggestionService struct {
	db *gorm.DB
}

func NewSuggestionService(db *gorm.DB) *SuggestionService {
	return &SuggestionService{db: db}
}

// Search matches product names case-insensitively; an empty query returns all
func (s *SuggestionService) Search(ctx context.Context, q string) ([]models.ProductSuggestion, error) {
	query := s.db.WithContext(ctx).Order("name")
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	suggestions := []models.ProductSuggestion{}
	if err := query.Find(&suggestions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}
	return suggestions, nil
}

// Create stores a product name proposed by a user
func (s *SuggestionService) Create(ctx context.Context, name, creatorEmail string) (*models.ProductSuggestion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("name is required")
	}
	suggestion := models.ProductSuggestion{Name: name, CreatorEmail: normalizeEmail(creatorEmail)}
	if err := s.db.WithContext(ctx).Create(&suggestion).Error; err != nil {
		return nil, fmt.Errorf("failed to create suggestion: %w", err)
	}
	return &suggestion, nil
}

func daysAgo(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}
