package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"listify_echo/internal/models"
)

// NewJoinCode derives a 6 character upper-case code from a random UUID.
// Collisions are left to the unique index.
func NewJoinCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

// NormalizeJoinCode trims and upper-cases user input
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type GroupService struct {
	db       *gorm.DB
	balances *BalanceService
}

func NewGroupService(db *gorm.DB, balances *BalanceService) *GroupService {
	return &GroupService{db: db, balances: balances}
}

// Create makes an empty group
func (s *GroupService) Create(ctx context.Context, name string) (*models.Group, error) {
	group := models.Group{Name: strings.TrimSpace(name), JoinCode: NewJoinCode()}
	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &group, nil
}

// CreateWithUser creates a group whose founder becomes its admin
func (s *GroupService) CreateWithUser(ctx context.Context, name string, founderID uint) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var founder models.User
		if err := tx.First(&founder, founderID).Error; err != nil {
			return notFoundOr(err, "user", founderID)
		}
		if founder.GroupID != nil {
			return Conflict("user already belongs to a group")
		}

		group = models.Group{Name: strings.TrimSpace(name), JoinCode: NewJoinCode()}
		if err := tx.Create(&group).Error; err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		if err := setMembership(tx, founder.ID, &group.ID, models.PermissionAdmin); err != nil {
			return err
		}
		return tx.Preload("Users", orderByID).First(&group, group.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.balances.Invalidate(ctx, founderID)
	slog.Info("group created", "group_id", group.ID, "founder", founderID)
	return &group, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// List returns every group with its members
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Preload("Users", orderByID).Order("id").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	return groups, nil
}

// Get returns a group with its members
func (s *GroupService) Get(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Preload("Users", orderByID).First(&group, id).Error; err != nil {
		return nil, notFoundOr(err, "group", id)
	}
	return &group, nil
}

// FindByJoinCode looks a group up by its join code
func (s *GroupService) FindByJoinCode(ctx context.Context, code string) (*models.Group, error) {
	code = NormalizeJoinCode(code)
	var group models.Group
	if err := s.db.WithContext(ctx).Preload("Users", orderByID).Where("join_code = ?", code).First(&group).Error; err != nil {
		return nil, notFoundOr(err, "group with join code", code)
	}
	return &group, nil
}

// GroupOfUser returns the group a user belongs to
func (s *GroupService) GroupOfUser(ctx context.Context, userID uint) (*models.Group, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	if user.GroupID == nil {
		return nil, NotFound("user %d has no group", userID)
	}
	return s.Get(ctx, *user.GroupID)
}

// Delete detaches all members and removes the group. Lists, payments and
// debts keep their rows without a group; the chat history is removed.
func (s *GroupService) Delete(ctx context.Context, id uint) error {
	var memberIDs []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, id).Error; err != nil {
			return notFoundOr(err, "group", id)
		}
		if err := tx.Model(&models.User{}).Where("group_id = ?", id).Pluck("id", &memberIDs).Error; err != nil {
			return fmt.Errorf("failed to fetch members: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("group_id = ?", id).
			Updates(map[string]interface{}{"group_id": nil, "permission": models.PermissionNone}).Error; err != nil {
			return fmt.Errorf("failed to detach members: %w", err)
		}
		for _, m := range []interface{}{&models.ShoppingList{}, &models.Payment{}, &models.Debt{}} {
			if err := tx.Model(m).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
				return fmt.Errorf("failed to detach group rows: %w", err)
			}
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete chat history: %w", err)
		}
		if err := tx.Delete(&group).Error; err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.balances.Invalidate(ctx, memberIDs...)
	return nil
}

// AddUser makes the user a plain member of the group
func (s *GroupService) AddUser(ctx context.Context, groupID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, groupID).Error; err != nil {
			return notFoundOr(err, "group", groupID)
		}
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user", userID)
		}
		if user.InGroup(groupID) {
			return nil
		}
		if user.GroupID != nil {
			return Conflict("user already belongs to another group")
		}
		return setMembership(tx, userID, &groupID, models.PermissionMember)
	})
	if err != nil {
		return err
	}
	s.balances.InvalidateGroup(ctx, &groupID)
	slog.Info("user joined group", "group_id", groupID, "user_id", userID)
	return nil
}

// RemoveUser takes the user out of the group, handing admin over if needed
func (s *GroupService) RemoveUser(ctx context.Context, groupID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, groupID).Error; err != nil {
			return notFoundOr(err, "group", groupID)
		}
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user", userID)
		}
		if !user.InGroup(groupID) {
			return BadRequest("user %d is not a member of group %d", userID, groupID)
		}
		return leaveGroup(tx, &user)
	})
	if err != nil {
		return err
	}
	s.balances.Invalidate(ctx, userID)
	s.balances.InvalidateGroup(ctx, &groupID)
	slog.Info("user left group", "group_id", groupID, "user_id", userID)
	return nil
}

// Kick lets the group admin remove another member
func (s *GroupService) Kick(ctx context.Context, groupID, targetID, requesterID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, groupID).Error; err != nil {
			return notFoundOr(err, "group", groupID)
		}
		var requester, target models.User
		if err := tx.First(&requester, requesterID).Error; err != nil {
			return notFoundOr(err, "user", requesterID)
		}
		if err := tx.First(&target, targetID).Error; err != nil {
			return notFoundOr(err, "user", targetID)
		}

		switch {
		case !requester.InGroup(groupID) || !target.InGroup(groupID):
			return Forbidden("both users must belong to the group")
		case !requester.IsAdmin():
			return Forbidden("only the group admin can remove members")
		case requesterID == targetID:
			return Forbidden("admins cannot kick themselves")
		}
		return leaveGroup(tx, &target)
	})
	if err != nil {
		return err
	}
	s.balances.Invalidate(ctx, targetID)
	s.balances.InvalidateGroup(ctx, &groupID)
	slog.Info("user kicked from group", "group_id", groupID, "user_id", targetID, "by", requesterID)
	return nil
}

// Permission returns the permission of a user
func (s *GroupService) Permission(ctx context.Context, userID uint) (models.Permission, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return "", notFoundOr(err, "user", userID)
	}
	return user.Permission, nil
}

// leaveGroup detaches user from its group. When the user was admin the first
// remaining member by id is promoted.
func leaveGroup(tx *gorm.DB, user *models.User) error {
	if user.GroupID == nil {
		return nil
	}
	groupID := *user.GroupID

	if user.IsAdmin() {
		var successor models.User
		err := tx.Where("group_id = ? AND id <> ?", groupID, user.ID).Order("id").First(&successor).Error
		switch {
		case err == nil:
			if err := tx.Model(&successor).Update("permission", models.PermissionAdmin).Error; err != nil {
				return fmt.Errorf("failed to promote new admin: %w", err)
			}
			slog.Info("group admin handed over", "group_id", groupID, "from", user.ID, "to", successor.ID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to find new admin: %w", err)
		}
	}

	if err := setMembership(tx, user.ID, nil, models.PermissionNone); err != nil {
		return err
	}
	user.GroupID = nil
	user.Permission = models.PermissionNone
	return nil
}

func setMembership(tx *gorm.DB, userID uint, groupID *uint, perm models.Permission) error {
	err := tx.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"group_id": groupID, "permission": perm}).Error
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	return nil
}
