package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yuqie6/StreakKeeper/internal/repository"
)

// RetryOnConflict 供调用方使用：仅在并发冲突时整体重试，其他错误立即返回
// retries 为额外重试次数，0 表示只执行一次
func RetryOnConflict(ctx context.Context, retries int, fn func(ctx context.Context) error) error {
	if retries < 0 {
		retries = 0
	}
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(ctx)
		if err == nil || !errors.Is(err, repository.ErrConcurrencyConflict) {
			return err
		}
		slog.Debug("连续状态并发冲突，重试", "attempt", attempt+1)
	}
	return err
}
