package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/StreakKeeper/internal/schema"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StreakEventRepository 连续打卡审计日志仓储（只追加）
type StreakEventRepository struct {
	db *gorm.DB
}

// NewStreakEventRepository 创建仓储
func NewStreakEventRepository(db *gorm.DB) *StreakEventRepository {
	return &StreakEventRepository{db: db}
}

// AppendEventLog 追加一条审计日志
func (r *StreakEventRepository) AppendEventLog(ctx context.Context, userID, kind string, metadata map[string]any) error {
	evt := &schema.StreakEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Metadata:  datatypes.JSONMap(metadata),
		Timestamp: time.Now().UnixMilli(),
	}
	if evt.Metadata == nil {
		evt.Metadata = datatypes.JSONMap{}
	}
	if err := r.db.WithContext(ctx).Create(evt).Error; err != nil {
		return fmt.Errorf("写入连续打卡日志失败: %w", err)
	}
	return nil
}

// CountByUser 统计用户某类日志条数（运维/测试用）
func (r *StreakEventRepository) CountByUser(ctx context.Context, userID, kind string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&schema.StreakEvent{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计连续打卡日志失败: %w", err)
	}
	return count, nil
}
