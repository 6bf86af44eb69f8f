package repository

import (
	"context"

	"github.com/yuqie6/StreakKeeper/internal/schema"
)

// StreakUpdate 一次连续状态写入
// ExpectedLastActivityAt / ExpectedStreakDays 为读取时的旧值，作为乐观并发令牌
type StreakUpdate struct {
	UserID                 string
	StreakDays             int
	LastActivityAt         int64 // Unix 毫秒
	WeightDelta            float64
	ExpectedLastActivityAt int64
	ExpectedStreakDays     int
}

// StreakStore 连续打卡的持久化契约
//
// 单用户写入必须串行：UpdateStreakState 只有在当前行仍等于期望的旧值时才生效，
// 否则返回 ErrConcurrencyConflict，由调用方决定是否整体重试。
// Transaction 内的所有操作要么全部提交，要么全部回滚。
type StreakStore interface {
	GetStreakState(ctx context.Context, userID string) (*schema.UserStreakState, error)
	InitStreakState(ctx context.Context, userID string) (*schema.UserStreakState, error)
	UpdateStreakState(ctx context.Context, update StreakUpdate) error
	AddActivityPoints(ctx context.Context, userID string, delta float64) error

	GetShieldCount(ctx context.Context, userID string) (int, error)
	ConsumeShield(ctx context.Context, userID string) error
	AddShields(ctx context.Context, userID string, quantity int) error

	GrantReward(ctx context.Context, userID, rewardKind string, quantity int) error

	Transaction(ctx context.Context, fn func(tx StreakStore) error) error
}

// EventLog 只追加的审计日志
type EventLog interface {
	AppendEventLog(ctx context.Context, userID, kind string, metadata map[string]any) error
}
