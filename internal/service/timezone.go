package service

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // 内嵌时区库，避免依赖宿主机 zoneinfo
)

var offsetZonePattern = regexp.MustCompile(`^(?:UTC|GMT)?([+-])(\d{1,2})(?::?(\d{2}))?$`)

// LocationResolver 将用户时区名解析为 *time.Location，无法识别时回退到默认时区
type LocationResolver struct {
	fallback *time.Location
}

// NewLocationResolver 创建解析器；默认时区本身无效时使用 UTC
func NewLocationResolver(defaultZone string) *LocationResolver {
	loc, err := ParseZone(defaultZone)
	if err != nil {
		slog.Warn("默认时区无效，使用 UTC", "zone", defaultZone, "error", err)
		loc = time.UTC
	}
	return &LocationResolver{fallback: loc}
}

// Resolve 解析时区；第二个返回值表示是否识别成功
func (r *LocationResolver) Resolve(name string) (*time.Location, bool) {
	loc, err := ParseZone(name)
	if err != nil {
		return r.Fallback(), false
	}
	return loc, true
}

// Fallback 默认时区
func (r *LocationResolver) Fallback() *time.Location {
	if r == nil || r.fallback == nil {
		return time.UTC
	}
	return r.fallback
}

// ParseZone 支持 IANA 名称（Asia/Shanghai）与固定偏移（+08:00、-0530、UTC+8）
func ParseZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("时区为空")
	}
	if strings.EqualFold(name, "UTC") || strings.EqualFold(name, "GMT") || name == "Z" {
		return time.UTC, nil
	}
	if m := offsetZonePattern.FindStringSubmatch(strings.ToUpper(name)); m != nil {
		return parseOffsetZone(name, m)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("无法识别时区 %q: %w", name, err)
	}
	return loc, nil
}

func parseOffsetZone(name string, m []string) (*time.Location, error) {
	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 14 || minutes >= 60 {
		return nil, fmt.Errorf("时区偏移越界 %q", name)
	}
	offset := hours*3600 + minutes*60
	if m[1] == "-" {
		offset = -offset
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", m[1], hours, minutes), offset), nil
}

// localDate 本地日历日（不含时刻）
type localDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) localDate {
	y, m, d := t.Date()
	return localDate{year: y, month: m, day: d}
}

// addDays 日历加减天数，跨月跨年由 time.Date 归一化
func (d localDate) addDays(n int) localDate {
	return dateOf(time.Date(d.year, d.month, d.day+n, 12, 0, 0, 0, time.UTC))
}

func (d localDate) before(o localDate) bool {
	if d.year != o.year {
		return d.year < o.year
	}
	if d.month != o.month {
		return d.month < o.month
	}
	return d.day < o.day
}

func (d localDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}
