package schema

import "time"

// UserStreakState 用户连续打卡状态
// 每个用户一行，首次活动时惰性创建，本模块从不删除
type UserStreakState struct {
	UserID              string    `gorm:"primaryKey;size:64"`
	StreakDays          int       `gorm:"not null;default:0"` // 当前连续天数
	LongestStreak       int       `gorm:"not null;default:0"` // 历史最长连续天数，只增不减
	TotalActivityPoints float64   `gorm:"not null;default:0"` // 累计活动权重，只增不减
	LastActivityAt      int64     `gorm:"not null;default:0"` // Unix 毫秒，0 表示从未活动
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (UserStreakState) TableName() string {
	return "user_streak_states"
}

// HasActivity 是否已有过活动
func (s *UserStreakState) HasActivity() bool {
	return s != nil && s.LastActivityAt > 0
}

// LastActivityTime 返回最后活动时间（无活动时为零值）
func (s *UserStreakState) LastActivityTime() time.Time {
	if !s.HasActivity() {
		return time.Time{}
	}
	return time.UnixMilli(s.LastActivityAt)
}
