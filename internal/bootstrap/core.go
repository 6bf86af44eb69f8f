package bootstrap

import (
	"io"
	"os"
	"path/filepath"

	"github.com/yuqie6/StreakKeeper/internal/eventbus"
	"github.com/yuqie6/StreakKeeper/internal/pkg/config"
	"github.com/yuqie6/StreakKeeper/internal/repository"
	"github.com/yuqie6/StreakKeeper/internal/service"
)

// Core 持有进程级核心依赖
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	Hub       *eventbus.Hub
	LogCloser io.Closer

	Repos struct {
		Streaks *repository.GormStreakStore
		Events  *repository.StreakEventRepository
	}

	Services struct {
		Streaks *service.StreakService
	}
}

// NewCore 构建核心依赖
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return NewCoreWithConfig(cfg)
}

// NewCoreWithConfig 使用已加载的配置构建核心依赖
func NewCoreWithConfig(cfg *config.Config) (*Core, error) {
	logCloser, err := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db, Hub: eventbus.NewHub(), LogCloser: logCloser}

	c.Repos.Streaks = repository.NewStreakStore(db.DB)
	c.Repos.Events = repository.NewStreakEventRepository(db.DB)

	c.Services.Streaks = service.NewStreakService(
		c.Repos.Streaks,
		c.Repos.Events,
		c.Hub,
		service.DefaultScorePolicy{},
		&service.StreakServiceConfig{
			DefaultTimezone:       cfg.Streak.DefaultTimezone,
			ForgivenessHours:      cfg.Streak.ForgivenessHours,
			DistinctFirstActivity: cfg.Streak.DistinctFirstActivity,
		},
	)

	return c, nil
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
