package schema

import (
	"time"

	"gorm.io/datatypes"
)

// 事件日志类型
const (
	StreakEventUpdated   = "streak_updated"
	StreakEventShieldUse = "shield_used"
)

// StreakEvent 连续打卡审计日志，只追加、不回读
// Metadata 只记录状态数字，不记录活动内容
type StreakEvent struct {
	ID        string            `gorm:"primaryKey;size:36"`
	UserID    string            `gorm:"size:64;index;not null"`
	Kind      string            `gorm:"size:32;index;not null"`
	Metadata  datatypes.JSONMap `gorm:"type:text"`
	Timestamp int64             `gorm:"index;not null"` // Unix 毫秒
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (StreakEvent) TableName() string {
	return "streak_events"
}
