package schema

import "time"

// LatestSchemaVersion 当前程序支持的 schema 版本
const LatestSchemaVersion = 1

// SchemaMeta 记录数据库 schema 版本，升级以它为门闸而不是盲目 AutoMigrate
// 表内仅维护单行（ID=1）
type SchemaMeta struct {
	ID            int       `gorm:"primaryKey"`
	SchemaVersion int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}
