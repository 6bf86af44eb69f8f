package schema

import "time"

// 里程碑奖励类型
const (
	RewardProtectionGrant = "protection_grant"
	RewardFeatureUnlock   = "feature_unlock"
	RewardTierUnlock      = "tier_unlock"
	RewardStatusUnlock    = "status_unlock"
)

// UserReward 已发放的奖励（成就记录）
type UserReward struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     string    `gorm:"size:64;index;not null"`
	RewardKind string    `gorm:"size:32;index;not null"`
	Quantity   int       `gorm:"not null;default:1"`
	GrantedAt  int64     `gorm:"index;not null"` // Unix 毫秒
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (UserReward) TableName() string {
	return "user_rewards"
}
