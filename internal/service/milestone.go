package service

import "github.com/yuqie6/StreakKeeper/internal/schema"

// Milestone 连续天数里程碑
type Milestone struct {
	Days       int    `json:"days"`
	Title      string `json:"title"`
	RewardKind string `json:"reward_kind"`
	Quantity   int    `json:"quantity"`
}

// NextMilestoneInfo 下一个里程碑及剩余天数
type NextMilestoneInfo struct {
	Milestone
	DaysRemaining int `json:"days_remaining"`
}

// milestoneTable 按天数升序
var milestoneTable = []Milestone{
	{Days: 7, Title: "Week Warrior", RewardKind: schema.RewardProtectionGrant, Quantity: 1},
	{Days: 30, Title: "Monthly Master", RewardKind: schema.RewardFeatureUnlock, Quantity: 1},
	{Days: 100, Title: "Century Champion", RewardKind: schema.RewardTierUnlock, Quantity: 1},
	{Days: 365, Title: "Year Legend", RewardKind: schema.RewardStatusUnlock, Quantity: 1},
}

// Milestones 返回里程碑表副本
func Milestones() []Milestone {
	return append([]Milestone(nil), milestoneTable...)
}

// EvaluateMilestone 精确匹配：只有恰好到达阈值时命中
func EvaluateMilestone(streakDays int) *Milestone {
	for _, m := range milestoneTable {
		if m.Days == streakDays {
			hit := m
			return &hit
		}
	}
	return nil
}

// NextMilestone 严格大于当前天数的最小里程碑；全部达成后返回 nil
func NextMilestone(streakDays int) *NextMilestoneInfo {
	for _, m := range milestoneTable {
		if m.Days > streakDays {
			return &NextMilestoneInfo{Milestone: m, DaysRemaining: m.Days - streakDays}
		}
	}
	return nil
}
