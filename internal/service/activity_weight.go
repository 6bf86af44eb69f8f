package service

import (
	"math"
	"strings"
)

// 活动类型
const (
	ActivityVoiceDrill   = "voice_drill"
	ActivityChatSession  = "chat_session"
	ActivityPodReview    = "pod_review"
	ActivityAssessment   = "assessment"
	ActivityMentorsLab   = "mentors_lab"
	ActivityMeetingAgent = "meeting_agent"
	ActivityVisionLab    = "vision_lab"
)

const (
	maxActivityWeight      = 3.0
	defaultCompletionScore = 50.0
)

// activityBaseMultipliers 活动类型基础倍率，未知类型按 1.0
var activityBaseMultipliers = map[string]float64{
	ActivityVoiceDrill:   1.5,
	ActivityAssessment:   1.4,
	ActivityMentorsLab:   1.3,
	ActivityPodReview:    1.2,
	ActivityVisionLab:    1.2,
	ActivityMeetingAgent: 1.1,
	ActivityChatSession:  1.0,
}

// ActivityMetadata 一次活动的元信息（不含内容）
type ActivityMetadata struct {
	Type            string   `json:"type"`
	DurationSeconds int      `json:"duration_seconds"`
	CompletionScore *float64 `json:"completion_score,omitempty"` // 0-100，nil 视为 50
}

// ScorePolicy 活动计分策略（可替换）
type ScorePolicy interface {
	CalcWeight(meta ActivityMetadata) float64
	CalcXP(weight float64, streakDays int) int
}

// DefaultScorePolicy 默认计分：类型 × 时长 × 质量，封顶 3.0
type DefaultScorePolicy struct{}

// CalcWeight 计算活动权重，输入越界时退化为中性倍率，不报错
func (p DefaultScorePolicy) CalcWeight(meta ActivityMetadata) float64 {
	w := baseMultiplier(meta.Type)
	w *= durationMultiplier(meta.DurationSeconds)
	w *= qualityMultiplier(completionScore(meta))

	w = clamp(w, 0, maxActivityWeight)
	return math.Round(w*100) / 100
}

// IsKnownActivityType 是否为已登记的活动类型
func IsKnownActivityType(t string) bool {
	_, ok := activityBaseMultipliers[normalizeActivityType(t)]
	return ok
}

func baseMultiplier(t string) float64 {
	if m, ok := activityBaseMultipliers[normalizeActivityType(t)]; ok {
		return m
	}
	return 1.0
}

// durationMultiplier 由高到低匹配，首个命中生效
func durationMultiplier(sec int) float64 {
	if sec < 0 {
		sec = 0
	}
	switch {
	case sec >= 1200:
		return 1.8
	case sec >= 600:
		return 1.5
	case sec >= 300:
		return 1.2
	case sec < 60:
		return 0.5
	default:
		return 1.0
	}
}

func qualityMultiplier(score float64) float64 {
	switch {
	case score >= 90:
		return 1.3
	case score >= 70:
		return 1.1
	case score < 30:
		return 0.7
	default:
		return 1.0
	}
}

func completionScore(meta ActivityMetadata) float64 {
	if meta.CompletionScore == nil || math.IsNaN(*meta.CompletionScore) {
		return defaultCompletionScore
	}
	return clamp(*meta.CompletionScore, 0, 100)
}

func normalizeActivityType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// clamp 将数值限制在指定范围内
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
