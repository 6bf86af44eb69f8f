package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/StreakKeeper/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakStateRepository 连续状态仓储
type StreakStateRepository struct {
	db *gorm.DB
}

// NewStreakStateRepository 创建仓储
func NewStreakStateRepository(db *gorm.DB) *StreakStateRepository {
	return &StreakStateRepository{db: db}
}

// GetStreakState 获取用户连续状态，不存在时返回 nil, nil
func (r *StreakStateRepository) GetStreakState(ctx context.Context, userID string) (*schema.UserStreakState, error) {
	var state schema.UserStreakState
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询连续状态失败: %w", err)
	}
	return &state, nil
}

// InitStreakState 创建全零状态；已存在时直接返回现有行
func (r *StreakStateRepository) InitStreakState(ctx context.Context, userID string) (*schema.UserStreakState, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID 不能为空")
	}
	state := &schema.UserStreakState{UserID: userID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(state).Error
	if err != nil {
		return nil, fmt.Errorf("初始化连续状态失败: %w", err)
	}

	got, err := r.GetStreakState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, fmt.Errorf("初始化连续状态失败: 写入后未找到 %s", userID)
	}
	return got, nil
}

// UpdateStreakState 条件更新：仅当行仍为期望旧值时写入
func (r *StreakStateRepository) UpdateStreakState(ctx context.Context, u StreakUpdate) error {
	if u.StreakDays < 0 {
		return fmt.Errorf("streak_days 不能为负: %d", u.StreakDays)
	}
	if u.WeightDelta < 0 {
		return fmt.Errorf("weight_delta 不能为负: %v", u.WeightDelta)
	}
	if u.LastActivityAt < u.ExpectedLastActivityAt {
		return fmt.Errorf("last_activity_at 不能回退: %d < %d", u.LastActivityAt, u.ExpectedLastActivityAt)
	}

	res := r.db.WithContext(ctx).
		Model(&schema.UserStreakState{}).
		Where("user_id = ? AND last_activity_at = ? AND streak_days = ?", u.UserID, u.ExpectedLastActivityAt, u.ExpectedStreakDays).
		Updates(map[string]any{
			"streak_days":           u.StreakDays,
			"longest_streak":        gorm.Expr("CASE WHEN longest_streak < ? THEN ? ELSE longest_streak END", u.StreakDays, u.StreakDays),
			"total_activity_points": gorm.Expr("total_activity_points + ?", u.WeightDelta),
			"last_activity_at":      u.LastActivityAt,
		})
	if res.Error != nil {
		return fmt.Errorf("更新连续状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}
	return nil
}

// AddActivityPoints 原子累加活动积分，不改变连续天数
func (r *StreakStateRepository) AddActivityPoints(ctx context.Context, userID string, delta float64) error {
	if delta < 0 {
		return fmt.Errorf("积分增量不能为负: %v", delta)
	}
	res := r.db.WithContext(ctx).
		Model(&schema.UserStreakState{}).
		Where("user_id = ?", userID).
		Update("total_activity_points", gorm.Expr("total_activity_points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("累加活动积分失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("累加活动积分失败: 用户 %s 无连续状态", userID)
	}
	return nil
}
