package service

import "time"

// StreakStatus 单次活动对连续状态的处理结果
type StreakStatus string

const (
	StatusAlreadyLogged StreakStatus = "already_logged"
	StatusExtended      StreakStatus = "extended"
	StatusSaved         StreakStatus = "saved"
	StatusForgiven      StreakStatus = "forgiven"
	StatusReset         StreakStatus = "reset"
	StatusFirstActivity StreakStatus = "first_activity"
)

const defaultForgivenessHours = 3

// StreakSnapshot 状态机输入：上一次的连续状态
type StreakSnapshot struct {
	StreakDays     int
	LongestStreak  int
	LastActivityAt time.Time // 零值表示从未活动
}

// StreakTransition 状态机输出
type StreakTransition struct {
	Status         StreakStatus
	StreakDays     int
	LongestStreak  int
	LastActivityAt time.Time
	ShieldUsed     bool       // 需要调用方扣减一个保护盾
	Milestone      *Milestone // 仅 extended 时可能非空
}

// StreakMachine 连续打卡状态机
// 规则按顺序匹配，首个命中生效：同日 → 昨日延续 → 保护盾 → 凌晨宽限 → 重置
type StreakMachine struct {
	ForgivenessHours      int  // 宽限窗口 [0, N) 点
	DistinctFirstActivity bool // 首次活动返回 first_activity 而非 reset
}

// Evaluate 计算新状态；hasShield 仅在出现断档时调用，其错误原样返回
func (m StreakMachine) Evaluate(prev StreakSnapshot, nowLocal time.Time, hasShield func() (bool, error)) (StreakTransition, error) {
	if prev.StreakDays < 0 {
		prev.StreakDays = 0
	}
	if prev.LongestStreak < prev.StreakDays {
		prev.LongestStreak = prev.StreakDays
	}

	if prev.LastActivityAt.IsZero() {
		status := StatusReset
		if m.DistinctFirstActivity {
			status = StatusFirstActivity
		}
		return m.restart(prev, nowLocal, status), nil
	}

	today := dateOf(nowLocal)
	yesterday := today.addDays(-1)
	lastDay := dateOf(prev.LastActivityAt.In(nowLocal.Location()))

	// 上次活动不早于今天（含时钟回拨/换时区导致的“未来”日期）：只记积分，时间不回退
	if !lastDay.before(today) {
		return StreakTransition{
			Status:         StatusAlreadyLogged,
			StreakDays:     prev.StreakDays,
			LongestStreak:  prev.LongestStreak,
			LastActivityAt: prev.LastActivityAt,
		}, nil
	}

	if lastDay == yesterday {
		days := prev.StreakDays + 1
		return StreakTransition{
			Status:         StatusExtended,
			StreakDays:     days,
			LongestStreak:  maxInt(prev.LongestStreak, days),
			LastActivityAt: nowLocal,
			Milestone:      EvaluateMilestone(days),
		}, nil
	}

	shield := false
	if hasShield != nil {
		ok, err := hasShield()
		if err != nil {
			return StreakTransition{}, err
		}
		shield = ok
	}
	if shield {
		return StreakTransition{
			Status:         StatusSaved,
			StreakDays:     prev.StreakDays,
			LongestStreak:  prev.LongestStreak,
			LastActivityAt: nowLocal,
			ShieldUsed:     true,
		}, nil
	}

	if nowLocal.Hour() < m.forgivenessHours() && lastDay == yesterday.addDays(-1) {
		days := prev.StreakDays + 1
		return StreakTransition{
			Status:         StatusForgiven,
			StreakDays:     days,
			LongestStreak:  maxInt(prev.LongestStreak, days),
			LastActivityAt: sameClockOn(yesterday, nowLocal),
		}, nil
	}

	return m.restart(prev, nowLocal, StatusReset), nil
}

func (m StreakMachine) restart(prev StreakSnapshot, nowLocal time.Time, status StreakStatus) StreakTransition {
	return StreakTransition{
		Status:         status,
		StreakDays:     1,
		LongestStreak:  maxInt(prev.LongestStreak, 1),
		LastActivityAt: nowLocal,
	}
}

// sameClockOn 取 d 日与 t 相同的钟点；该钟点在 d 日不存在（夏令时在零点切换）时取 d 日正午
func sameClockOn(d localDate, t time.Time) time.Time {
	loc := t.Location()
	c := time.Date(d.year, d.month, d.day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	if dateOf(c) != d {
		c = time.Date(d.year, d.month, d.day, 12, 0, 0, 0, loc)
	}
	return c
}

func (m StreakMachine) forgivenessHours() int {
	if m.ForgivenessHours <= 0 {
		return defaultForgivenessHours
	}
	if m.ForgivenessHours > 23 {
		return 23
	}
	return m.ForgivenessHours
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
