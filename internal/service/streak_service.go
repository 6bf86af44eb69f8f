package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuqie6/StreakKeeper/internal/eventbus"
	"github.com/yuqie6/StreakKeeper/internal/repository"
	"github.com/yuqie6/StreakKeeper/internal/schema"
)

// StreakService 活动接入流水线：计分 → 状态机 → 持久化 → 里程碑 → 经验值
type StreakService struct {
	store     StreakStore
	eventLog  EventLog
	publisher Publisher
	policy    ScorePolicy
	machine   StreakMachine
	zones     *LocationResolver
	now       func() time.Time
}

// StreakServiceConfig 连续打卡服务配置
type StreakServiceConfig struct {
	DefaultTimezone       string // 用户时区无法识别时使用
	ForgivenessHours      int    // 凌晨宽限窗口小时数
	DistinctFirstActivity bool   // 首次活动单独返回 first_activity
}

// IngestionResult 单次活动处理结果
type IngestionResult struct {
	Status              StreakStatus `json:"status"`
	Message             string       `json:"message"`
	StreakDays          int          `json:"streak_days"`
	LongestStreak       int          `json:"longest_streak"`
	Milestone           *Milestone   `json:"milestone,omitempty"`
	XPEarned            int          `json:"xp_earned"`
	Weight              float64      `json:"weight"`
	TotalActivityPoints float64      `json:"total_activity_points"`
}

// StreakStats 连续打卡统计
type StreakStats struct {
	CurrentStreak int                `json:"current_streak"`
	LongestStreak int                `json:"longest_streak"`
	TotalPoints   float64            `json:"total_points"`
	LastActive    *time.Time         `json:"last_active,omitempty"`
	NextMilestone *NextMilestoneInfo `json:"next_milestone,omitempty"`
}

// NewStreakService 创建连续打卡服务
func NewStreakService(store StreakStore, eventLog EventLog, publisher Publisher, policy ScorePolicy, cfg *StreakServiceConfig) *StreakService {
	if cfg == nil {
		cfg = &StreakServiceConfig{DefaultTimezone: "UTC", ForgivenessHours: defaultForgivenessHours}
	}
	if policy == nil {
		policy = DefaultScorePolicy{}
	}
	return &StreakService{
		store:     store,
		eventLog:  eventLog,
		publisher: publisher,
		policy:    policy,
		machine: StreakMachine{
			ForgivenessHours:      cfg.ForgivenessHours,
			DistinctFirstActivity: cfg.DistinctFirstActivity,
		},
		zones: NewLocationResolver(cfg.DefaultTimezone),
		now:   time.Now,
	}
}

// ProcessActivity 处理一次活动
// 只有持久化失败会返回错误，且原样返回（含 repository.ErrConcurrencyConflict），不在内部重试
func (s *StreakService) ProcessActivity(ctx context.Context, userID, timezone string, meta ActivityMetadata) (*IngestionResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("userID 不能为空")
	}

	if !IsKnownActivityType(meta.Type) {
		slog.Debug("未知活动类型，使用中性倍率", "type", meta.Type)
	}
	weight := s.policy.CalcWeight(meta)

	loc, ok := s.zones.Resolve(timezone)
	if !ok {
		slog.Debug("无法识别时区，使用默认时区", "timezone", timezone, "fallback", loc.String())
	}
	nowLocal := s.now().In(loc)

	var (
		tr          StreakTransition
		prevDays    int
		totalPoints float64
	)
	err := s.store.Transaction(ctx, func(tx repository.StreakStore) error {
		state, err := tx.GetStreakState(ctx, userID)
		if err != nil {
			return err
		}
		if state == nil {
			if state, err = tx.InitStreakState(ctx, userID); err != nil {
				return err
			}
		}
		prevDays = state.StreakDays
		totalPoints = state.TotalActivityPoints + weight

		tr, err = s.evaluate(ctx, tx, userID, state, nowLocal)
		if err != nil {
			return err
		}
		if err := s.persist(ctx, tx, userID, state, tr, weight); err != nil {
			return err
		}

		// 积分为原子累加，回读写入后的值
		after, err := tx.GetStreakState(ctx, userID)
		if err != nil {
			return err
		}
		if after != nil {
			totalPoints = after.TotalActivityPoints
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordEvents(ctx, userID, prevDays, tr, weight)

	result := &IngestionResult{
		Status:              tr.Status,
		Message:             buildMessage(tr),
		StreakDays:          tr.StreakDays,
		LongestStreak:       tr.LongestStreak,
		Milestone:           tr.Milestone,
		XPEarned:            s.policy.CalcXP(weight, tr.StreakDays),
		Weight:              weight,
		TotalActivityPoints: totalPoints,
	}
	slog.Info("活动处理完成",
		"user", userID,
		"status", result.Status,
		"streak_days", result.StreakDays,
		"weight", result.Weight,
		"xp", result.XPEarned,
	)
	return result, nil
}

// evaluate 运行状态机；保护盾在并发下被抢先用掉时按无盾重新判定
func (s *StreakService) evaluate(ctx context.Context, tx StreakStore, userID string, state *schema.UserStreakState, nowLocal time.Time) (StreakTransition, error) {
	prev := StreakSnapshot{
		StreakDays:     state.StreakDays,
		LongestStreak:  state.LongestStreak,
		LastActivityAt: state.LastActivityTime(),
	}
	hasShield := func() (bool, error) {
		n, err := tx.GetShieldCount(ctx, userID)
		return n > 0, err
	}

	tr, err := s.machine.Evaluate(prev, nowLocal, hasShield)
	if err != nil || !tr.ShieldUsed {
		return tr, err
	}

	err = tx.ConsumeShield(ctx, userID)
	if err == nil {
		return tr, nil
	}
	if !errors.Is(err, repository.ErrNoShieldAvailable) {
		return StreakTransition{}, err
	}
	return s.machine.Evaluate(prev, nowLocal, func() (bool, error) { return false, nil })
}

func (s *StreakService) persist(ctx context.Context, tx StreakStore, userID string, state *schema.UserStreakState, tr StreakTransition, weight float64) error {
	if tr.Status == StatusAlreadyLogged {
		return tx.AddActivityPoints(ctx, userID, weight)
	}

	err := tx.UpdateStreakState(ctx, repository.StreakUpdate{
		UserID:                 userID,
		StreakDays:             tr.StreakDays,
		LastActivityAt:         tr.LastActivityAt.UnixMilli(),
		WeightDelta:            weight,
		ExpectedLastActivityAt: state.LastActivityAt,
		ExpectedStreakDays:     state.StreakDays,
	})
	if err != nil {
		return err
	}

	if tr.Status == StatusExtended && tr.Milestone != nil {
		return tx.GrantReward(ctx, userID, tr.Milestone.RewardKind, tr.Milestone.Quantity)
	}
	return nil
}

// recordEvents 写审计日志并广播；失败只记录日志，不影响结果
func (s *StreakService) recordEvents(ctx context.Context, userID string, prevDays int, tr StreakTransition, weight float64) {
	milestone := ""
	if tr.Milestone != nil {
		milestone = tr.Milestone.Title
	}

	if tr.Status != StatusAlreadyLogged && s.eventLog != nil {
		meta := map[string]any{
			"status":          string(tr.Status),
			"previous_streak": prevDays,
			"streak_days":     tr.StreakDays,
			"weight":          weight,
		}
		if milestone != "" {
			meta["milestone"] = milestone
		}
		if err := s.eventLog.AppendEventLog(ctx, userID, schema.StreakEventUpdated, meta); err != nil {
			slog.Warn("写入连续打卡日志失败", "user", userID, "error", err)
		}
		if tr.ShieldUsed {
			if err := s.eventLog.AppendEventLog(ctx, userID, schema.StreakEventShieldUse, map[string]any{
				"streak_days": tr.StreakDays,
			}); err != nil {
				slog.Warn("写入保护盾日志失败", "user", userID, "error", err)
			}
		}
	}

	if s.publisher != nil {
		s.publisher.Publish(eventbus.Event{
			Type: eventbus.TypeStreakUpdated,
			Data: map[string]any{
				"user_id":     userID,
				"status":      string(tr.Status),
				"streak_days": tr.StreakDays,
				"milestone":   milestone,
			},
		})
	}
}

// GetStreakStats 获取连续打卡统计；无记录时返回全零
func (s *StreakService) GetStreakStats(ctx context.Context, userID string) (*StreakStats, error) {
	state, err := s.store.GetStreakState(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	stats := &StreakStats{}
	if state != nil {
		stats.CurrentStreak = state.StreakDays
		stats.LongestStreak = state.LongestStreak
		stats.TotalPoints = state.TotalActivityPoints
		if state.HasActivity() {
			last := state.LastActivityTime()
			stats.LastActive = &last
		}
	}
	stats.NextMilestone = NextMilestone(stats.CurrentStreak)
	return stats, nil
}

func buildMessage(tr StreakTransition) string {
	var msg string
	switch tr.Status {
	case StatusAlreadyLogged:
		msg = "Activity recorded. Today already counts toward your streak."
	case StatusExtended:
		msg = fmt.Sprintf("Streak extended to %d days!", tr.StreakDays)
	case StatusSaved:
		msg = fmt.Sprintf("Streak shield used. Your %d-day streak is safe.", tr.StreakDays)
	case StatusForgiven:
		msg = fmt.Sprintf("Late-night grace applied. Streak extended to %d days.", tr.StreakDays)
	case StatusFirstActivity:
		msg = "Streak started."
	default:
		msg = "Streak reset."
	}
	if tr.Milestone != nil {
		msg += " Milestone unlocked: " + tr.Milestone.Title + "!"
	}
	return msg
}
