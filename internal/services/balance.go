package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"listify_echo/internal/models"
)

// MemberBalance is the net position between the viewing user and one other member.
// At most one of OwesYou and YouOwe is positive.
type MemberBalance struct {
	UserID    uint    `json:"user_id"`
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url"`
	OwesYou   float64 `json:"owes_you"`
	YouOwe    float64 `json:"you_owe"`
}

// BalanceSummary aggregates a user's balances against the rest of the group
type BalanceSummary struct {
	GroupID      *uint           `json:"group_id"`
	Members      []MemberBalance `json:"debts"`
	TotalOwesYou float64         `json:"total_owes_you"`
	TotalYouOwe  float64         `json:"total_you_owe"`
}

type BalanceService struct {
	db     *gorm.DB
	ledger *LedgerStore
	cache  *RedisCache
	ttl    time.Duration
}

func NewBalanceService(db *gorm.DB, cache *RedisCache, ttl time.Duration) *BalanceService {
	return &BalanceService{db: db, ledger: NewLedgerStore(db), cache: cache, ttl: ttl}
}

func balanceKey(userID uint) string {
	return fmt.Sprintf("balance:user:%d", userID)
}

// Summarize returns the balance summary of a user; a user without a group gets
// an empty summary
func (s *BalanceService) Summarize(ctx context.Context, userID uint) (*BalanceSummary, error) {
	summary, err := GetOrSet(s.cache, ctx, balanceKey(userID), s.ttl, func() (BalanceSummary, error) {
		return s.compute(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *BalanceService) compute(ctx context.Context, userID uint) (BalanceSummary, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return BalanceSummary{}, notFoundOr(err, "user", userID)
	}
	if user.GroupID == nil {
		return BalanceSummary{Members: []MemberBalance{}}, nil
	}

	var members []models.User
	if err := s.db.WithContext(ctx).Where("group_id = ?", *user.GroupID).Order("id").Find(&members).Error; err != nil {
		return BalanceSummary{}, fmt.Errorf("failed to fetch group members: %w", err)
	}

	debts, err := s.ledger.ByGroup(ctx, *user.GroupID)
	if err != nil {
		return BalanceSummary{}, err
	}

	summary := Aggregate(userID, members, debts)
	summary.GroupID = user.GroupID
	return summary, nil
}

// Invalidate drops cached summaries of the given users
func (s *BalanceService) Invalidate(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, balanceKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logCacheError(err)
	}
}

// InvalidateGroup drops cached summaries of every member of a group
func (s *BalanceService) InvalidateGroup(ctx context.Context, groupID *uint) {
	if groupID == nil || s.cache == nil {
		return
	}
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("group_id = ?", *groupID).Pluck("id", &ids).Error; err != nil {
		logCacheError(err)
		return
	}
	s.Invalidate(ctx, ids...)
}

// Aggregate nets the debts between userID and every other member.
// Debts involving users outside members are ignored.
func Aggregate(userID uint, members []models.User, debts []models.Debt) BalanceSummary {
	owesYou := make(map[uint]decimal.Decimal)
	youOwe := make(map[uint]decimal.Decimal)
	for _, d := range debts {
		amount := decimal.NewFromFloat(d.Amount)
		switch {
		case d.ToUserID == userID && d.FromUserID != userID:
			owesYou[d.FromUserID] = owesYou[d.FromUserID].Add(amount)
		case d.FromUserID == userID && d.ToUserID != userID:
			youOwe[d.ToUserID] = youOwe[d.ToUserID].Add(amount)
		}
	}

	summary := BalanceSummary{Members: []MemberBalance{}}
	totalOwesYou := decimal.Zero
	totalYouOwe := decimal.Zero
	for _, m := range members {
		if m.ID == userID {
			continue
		}
		net := owesYou[m.ID].Sub(youOwe[m.ID])
		finalOwesYou := decimal.Max(net, decimal.Zero)
		finalYouOwe := decimal.Max(net.Neg(), decimal.Zero)

		totalOwesYou = totalOwesYou.Add(finalOwesYou)
		totalYouOwe = totalYouOwe.Add(finalYouOwe)

		summary.Members = append(summary.Members, MemberBalance{
			UserID:    m.ID,
			Username:  m.Username,
			AvatarURL: DisplayAvatar(m),
			OwesYou:   finalOwesYou.InexactFloat64(),
			YouOwe:    finalYouOwe.InexactFloat64(),
		})
	}
	summary.TotalOwesYou = totalOwesYou.InexactFloat64()
	summary.TotalYouOwe = totalYouOwe.InexactFloat64()
	return summary
}

// DisplayAvatar returns a PNG avatar for the user, generating one from the
// username when none is stored
func DisplayAvatar(u models.User) string {
	if u.AvatarURL == "" {
		return "https://api.dicebear.com/7.x/personas/png?seed=" + url.QueryEscape(u.Username)
	}
	return strings.Replace(u.AvatarURL, "/svg", "/png", 1)
}
