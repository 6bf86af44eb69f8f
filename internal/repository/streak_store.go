package repository

import (
	"context"

	"github.com/yuqie6/StreakKeeper/internal/schema"
	"gorm.io/gorm"
)

// GormStreakStore 基于 gorm 的 StreakStore 实现
type GormStreakStore struct {
	db      *gorm.DB
	states  *StreakStateRepository
	shields *ShieldRepository
	rewards *RewardRepository
}

var _ StreakStore = (*GormStreakStore)(nil)

// NewStreakStore 创建存储；db 可以是事务句柄
func NewStreakStore(db *gorm.DB) *GormStreakStore {
	return &GormStreakStore{
		db:      db,
		states:  NewStreakStateRepository(db),
		shields: NewShieldRepository(db),
		rewards: NewRewardRepository(db),
	}
}

func (s *GormStreakStore) GetStreakState(ctx context.Context, userID string) (*schema.UserStreakState, error) {
	return s.states.GetStreakState(ctx, userID)
}

func (s *GormStreakStore) InitStreakState(ctx context.Context, userID string) (*schema.UserStreakState, error) {
	return s.states.InitStreakState(ctx, userID)
}

func (s *GormStreakStore) UpdateStreakState(ctx context.Context, update StreakUpdate) error {
	return s.states.UpdateStreakState(ctx, update)
}

func (s *GormStreakStore) AddActivityPoints(ctx context.Context, userID string, delta float64) error {
	return s.states.AddActivityPoints(ctx, userID, delta)
}

func (s *GormStreakStore) GetShieldCount(ctx context.Context, userID string) (int, error) {
	return s.shields.GetShieldCount(ctx, userID)
}

func (s *GormStreakStore) ConsumeShield(ctx context.Context, userID string) error {
	return s.shields.ConsumeShield(ctx, userID)
}

func (s *GormStreakStore) AddShields(ctx context.Context, userID string, quantity int) error {
	return s.shields.AddShields(ctx, userID, quantity)
}

// GrantReward 发放奖励；保护类奖励同时增加保护盾库存
func (s *GormStreakStore) GrantReward(ctx context.Context, userID, rewardKind string, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	return s.Transaction(ctx, func(tx StreakStore) error {
		txStore := tx.(*GormStreakStore)
		if err := txStore.rewards.Create(ctx, &schema.UserReward{
			UserID:     userID,
			RewardKind: rewardKind,
			Quantity:   quantity,
		}); err != nil {
			return err
		}
		if rewardKind == schema.RewardProtectionGrant {
			return txStore.shields.AddShields(ctx, userID, quantity)
		}
		return nil
	})
}

// Transaction 在事务中执行操作
func (s *GormStreakStore) Transaction(ctx context.Context, fn func(tx StreakStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStreakStore(tx))
	})
}

// Rewards 暴露奖励仓储（只读查询用）
func (s *GormStreakStore) Rewards() *RewardRepository {
	return s.rewards
}
