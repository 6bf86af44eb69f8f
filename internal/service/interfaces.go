package service

import (
	"github.com/yuqie6/StreakKeeper/internal/eventbus"
	"github.com/yuqie6/StreakKeeper/internal/repository"
)

// 持久化协作方契约见 repository.StreakStore / repository.EventLog

type StreakStore = repository.StreakStore

type EventLog = repository.EventLog

// Publisher 进程内事件发布
type Publisher interface {
	Publish(evt eventbus.Event)
}
