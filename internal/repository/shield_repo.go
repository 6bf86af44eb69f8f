package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/StreakKeeper/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShieldRepository 保护盾库存仓储
type ShieldRepository struct {
	db *gorm.DB
}

// NewShieldRepository 创建仓储
func NewShieldRepository(db *gorm.DB) *ShieldRepository {
	return &ShieldRepository{db: db}
}

// GetShieldCount 获取可用保护盾数量，无库存记录时为 0
func (r *ShieldRepository) GetShieldCount(ctx context.Context, userID string) (int, error) {
	var inv schema.ShieldInventory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_kind = ?", userID, schema.ShieldItemKind).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("查询保护盾失败: %w", err)
	}
	return inv.Quantity, nil
}

// ConsumeShield 扣减一个保护盾；库存为 0 时返回 ErrNoShieldAvailable
func (r *ShieldRepository) ConsumeShield(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).
		Model(&schema.ShieldInventory{}).
		Where("user_id = ? AND item_kind = ? AND quantity > 0", userID, schema.ShieldItemKind).
		Update("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return fmt.Errorf("扣减保护盾失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoShieldAvailable
	}
	return nil
}

// AddShields 增加保护盾库存
func (r *ShieldRepository) AddShields(ctx context.Context, userID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("保护盾数量必须为正: %d", quantity)
	}
	inv := &schema.ShieldInventory{UserID: userID, ItemKind: schema.ShieldItemKind, Quantity: quantity}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_kind"}},
		DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("quantity + ?", quantity)}),
	}).Create(inv).Error
	if err != nil {
		return fmt.Errorf("增加保护盾失败: %w", err)
	}
	return nil
}
