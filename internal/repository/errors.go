package repository

import "errors"

var (
	// ErrConcurrencyConflict 乐观并发校验失败：期望的上一状态已被其他写入改变
	ErrConcurrencyConflict = errors.New("连续状态并发冲突")
	// ErrNoShieldAvailable 没有可用的保护盾
	ErrNoShieldAvailable = errors.New("没有可用的保护盾")
)
