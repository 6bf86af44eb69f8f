package schema

import "time"

// ShieldItemKind 连续打卡保护道具
const ShieldItemKind = "streak_shield"

// ShieldInventory 用户道具库存（目前只有保护盾一种）
type ShieldInventory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:uniq_shield_inventory,priority:1"`
	ItemKind  string    `gorm:"size:32;not null;uniqueIndex:uniq_shield_inventory,priority:2"`
	Quantity  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ShieldInventory) TableName() string {
	return "shield_inventories"
}
