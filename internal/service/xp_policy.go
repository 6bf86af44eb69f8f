package service

import "math"

const (
	xpPerWeight         = 10.0
	streakBonusPerDay   = 0.1
	maxStreakBonusRatio = 2.0
)

// CalcXP 经验值 = floor(weight × 10 × (1 + min(streakDays × 0.1, 2.0)))
// streakDays 取更新后的连续天数
func (p DefaultScorePolicy) CalcXP(weight float64, streakDays int) int {
	if weight <= 0 || math.IsNaN(weight) {
		return 0
	}
	if streakDays < 0 {
		streakDays = 0
	}
	bonus := math.Min(float64(streakDays)*streakBonusPerDay, maxStreakBonusRatio)
	return int(math.Floor(weight * xpPerWeight * (1 + bonus)))
}
