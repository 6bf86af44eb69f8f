package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/StreakKeeper/internal/schema"
	"gorm.io/gorm"
)

// RewardRepository 奖励发放记录仓储
type RewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository 创建仓储
func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Create 写入一条奖励记录
func (r *RewardRepository) Create(ctx context.Context, reward *schema.UserReward) error {
	if reward.GrantedAt == 0 {
		reward.GrantedAt = time.Now().UnixMilli()
	}
	if err := r.db.WithContext(ctx).Create(reward).Error; err != nil {
		return fmt.Errorf("写入奖励失败: %w", err)
	}
	return nil
}

// ListByUser 按发放时间倒序列出用户奖励
func (r *RewardRepository) ListByUser(ctx context.Context, userID string) ([]schema.UserReward, error) {
	var rewards []schema.UserReward
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at DESC, id DESC").
		Find(&rewards).Error
	if err != nil {
		return nil, fmt.Errorf("查询奖励失败: %w", err)
	}
	return rewards, nil
}
