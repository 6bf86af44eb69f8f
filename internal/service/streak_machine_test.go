package service

import (
	"errors"
	"testing"
	"time"
)

var testLoc = time.FixedZone("UTC+8", 8*3600)

func at(loc *time.Location, y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func shieldOf(ok bool) func() (bool, error) {
	return func() (bool, error) { return ok, nil }
}

func TestStreakMachineRules(t *testing.T) {
	m := StreakMachine{ForgivenessHours: 3}
	cases := []struct {
		name       string
		last       time.Time
		days       int
		now        time.Time
		shield     bool
		wantStatus StreakStatus
		wantDays   int
		wantLast   time.Time
	}{
		{
			name: "same day", last: at(testLoc, 2024, 5, 10, 8, 0), days: 4,
			now: at(testLoc, 2024, 5, 10, 22, 0), wantStatus: StatusAlreadyLogged, wantDays: 4,
			wantLast: at(testLoc, 2024, 5, 10, 8, 0),
		},
		{
			name: "yesterday late night", last: at(testLoc, 2024, 5, 9, 23, 59), days: 4,
			now: at(testLoc, 2024, 5, 10, 0, 1), wantStatus: StatusExtended, wantDays: 5,
			wantLast: at(testLoc, 2024, 5, 10, 0, 1),
		},
		{
			name: "gap with shield", last: at(testLoc, 2024, 5, 8, 12, 0), days: 4, shield: true,
			now: at(testLoc, 2024, 5, 10, 14, 0), wantStatus: StatusSaved, wantDays: 4,
			wantLast: at(testLoc, 2024, 5, 10, 14, 0),
		},
		{
			name: "shield wins over forgiveness", last: at(testLoc, 2024, 5, 8, 12, 0), days: 4, shield: true,
			now: at(testLoc, 2024, 5, 10, 1, 0), wantStatus: StatusSaved, wantDays: 4,
			wantLast: at(testLoc, 2024, 5, 10, 1, 0),
		},
		{
			name: "forgiven early morning", last: at(testLoc, 2024, 5, 8, 20, 0), days: 4,
			now: at(testLoc, 2024, 5, 10, 2, 59), wantStatus: StatusForgiven, wantDays: 5,
			wantLast: at(testLoc, 2024, 5, 9, 2, 59),
		},
		{
			name: "forgiveness window closed", last: at(testLoc, 2024, 5, 8, 20, 0), days: 4,
			now: at(testLoc, 2024, 5, 10, 3, 0), wantStatus: StatusReset, wantDays: 1,
			wantLast: at(testLoc, 2024, 5, 10, 3, 0),
		},
		{
			name: "two days skipped not forgiven", last: at(testLoc, 2024, 5, 7, 20, 0), days: 4,
			now: at(testLoc, 2024, 5, 10, 1, 0), wantStatus: StatusReset, wantDays: 1,
			wantLast: at(testLoc, 2024, 5, 10, 1, 0),
		},
		{
			name: "month boundary extend", last: at(testLoc, 2024, 1, 31, 18, 0), days: 9,
			now: at(testLoc, 2024, 2, 1, 9, 0), wantStatus: StatusExtended, wantDays: 10,
			wantLast: at(testLoc, 2024, 2, 1, 9, 0),
		},
		{
			name: "year boundary forgiven", last: at(testLoc, 2024, 12, 30, 18, 0), days: 2,
			now: at(testLoc, 2025, 1, 1, 0, 30), wantStatus: StatusForgiven, wantDays: 3,
			wantLast: at(testLoc, 2024, 12, 31, 0, 30),
		},
		{
			name: "leap day extend", last: at(testLoc, 2024, 2, 29, 18, 0), days: 1,
			now: at(testLoc, 2024, 3, 1, 9, 0), wantStatus: StatusExtended, wantDays: 2,
			wantLast: at(testLoc, 2024, 3, 1, 9, 0),
		},
		{
			name: "future last activity never moves back", last: at(testLoc, 2024, 5, 12, 8, 0), days: 3,
			now: at(testLoc, 2024, 5, 10, 8, 0), wantStatus: StatusAlreadyLogged, wantDays: 3,
			wantLast: at(testLoc, 2024, 5, 12, 8, 0),
		},
	}

	for _, tc := range cases {
		prev := StreakSnapshot{StreakDays: tc.days, LongestStreak: tc.days, LastActivityAt: tc.last}
		tr, err := m.Evaluate(prev, tc.now, shieldOf(tc.shield))
		if err != nil {
			t.Fatalf("%s: error %v", tc.name, err)
		}
		if tr.Status != tc.wantStatus || tr.StreakDays != tc.wantDays {
			t.Errorf("%s: status=%s days=%d, want %s %d", tc.name, tr.Status, tr.StreakDays, tc.wantStatus, tc.wantDays)
		}
		if !tr.LastActivityAt.Equal(tc.wantLast) {
			t.Errorf("%s: last=%v, want %v", tc.name, tr.LastActivityAt, tc.wantLast)
		}
		if tr.ShieldUsed != (tc.wantStatus == StatusSaved) {
			t.Errorf("%s: shieldUsed=%v", tc.name, tr.ShieldUsed)
		}
		if tr.LongestStreak < tc.days {
			t.Errorf("%s: longest=%d decreased below %d", tc.name, tr.LongestStreak, tc.days)
		}
	}
}

func TestStreakMachineComparesInUserZone(t *testing.T) {
	m := StreakMachine{}
	// UTC 时间 5/9 20:00 在 UTC+8 已是 5/10 04:00，与 5/10 22:00 同日
	last := time.Date(2024, 5, 9, 20, 0, 0, 0, time.UTC)
	tr, err := m.Evaluate(StreakSnapshot{StreakDays: 2, LongestStreak: 2, LastActivityAt: last}, at(testLoc, 2024, 5, 10, 22, 0), shieldOf(false))
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if tr.Status != StatusAlreadyLogged {
		t.Fatalf("status=%s, want already_logged", tr.Status)
	}
}

func TestStreakMachineFirstActivity(t *testing.T) {
	now := at(testLoc, 2024, 5, 10, 9, 0)
	called := false
	probe := func() (bool, error) { called = true; return true, nil }

	tr, _ := StreakMachine{}.Evaluate(StreakSnapshot{}, now, probe)
	if tr.Status != StatusReset || tr.StreakDays != 1 || tr.LongestStreak != 1 {
		t.Fatalf("first activity=%+v, want reset with 1 day", tr)
	}
	if called {
		t.Fatalf("shield should not be queried for a first activity")
	}

	tr, _ = StreakMachine{DistinctFirstActivity: true}.Evaluate(StreakSnapshot{}, now, probe)
	if tr.Status != StatusFirstActivity || tr.StreakDays != 1 {
		t.Fatalf("first activity=%+v, want first_activity", tr)
	}
}

func TestStreakMachineShieldQueriedOnlyOnGap(t *testing.T) {
	m := StreakMachine{}
	calls := 0
	probe := func() (bool, error) { calls++; return false, nil }
	prev := StreakSnapshot{StreakDays: 3, LongestStreak: 3, LastActivityAt: at(testLoc, 2024, 5, 9, 10, 0)}

	_, _ = m.Evaluate(prev, at(testLoc, 2024, 5, 9, 18, 0), probe)
	_, _ = m.Evaluate(prev, at(testLoc, 2024, 5, 10, 18, 0), probe)
	if calls != 0 {
		t.Fatalf("shield probed %d times without a gap", calls)
	}
	_, _ = m.Evaluate(prev, at(testLoc, 2024, 5, 12, 18, 0), probe)
	if calls != 1 {
		t.Fatalf("shield probed %d times on gap, want 1", calls)
	}
}

func TestStreakMachineShieldErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	prev := StreakSnapshot{StreakDays: 3, LastActivityAt: at(testLoc, 2024, 5, 1, 10, 0)}
	_, err := StreakMachine{}.Evaluate(prev, at(testLoc, 2024, 5, 10, 10, 0), func() (bool, error) { return false, boom })
	if err != boom {
		t.Fatalf("err=%v, want original error", err)
	}
}

func TestStreakMachineMilestoneOnlyOnExtend(t *testing.T) {
	m := StreakMachine{}
	prev := StreakSnapshot{StreakDays: 6, LongestStreak: 6, LastActivityAt: at(testLoc, 2024, 5, 9, 10, 0)}

	tr, _ := m.Evaluate(prev, at(testLoc, 2024, 5, 10, 10, 0), shieldOf(false))
	if tr.Milestone == nil || tr.Milestone.Days != 7 {
		t.Fatalf("6->7 milestone=%+v, want Week Warrior", tr.Milestone)
	}

	prev = StreakSnapshot{StreakDays: 7, LongestStreak: 7, LastActivityAt: at(testLoc, 2024, 5, 10, 10, 0)}
	tr, _ = m.Evaluate(prev, at(testLoc, 2024, 5, 11, 10, 0), shieldOf(false))
	if tr.Milestone != nil {
		t.Fatalf("7->8 milestone=%+v, want nil", tr.Milestone)
	}
}

func TestStreakMachineAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	m := StreakMachine{}

	// 2024-03-10 美东夏令时开始，当天只有 23 小时
	prev := StreakSnapshot{StreakDays: 2, LongestStreak: 2, LastActivityAt: at(ny, 2024, 3, 9, 12, 0)}
	tr, _ := m.Evaluate(prev, at(ny, 2024, 3, 10, 23, 30), shieldOf(false))
	if tr.Status != StatusExtended {
		t.Fatalf("dst day status=%s, want extended", tr.Status)
	}

	prev = StreakSnapshot{StreakDays: 2, LongestStreak: 2, LastActivityAt: at(ny, 2024, 3, 9, 20, 0)}
	tr, _ = m.Evaluate(prev, at(ny, 2024, 3, 11, 1, 0), shieldOf(false))
	if tr.Status != StatusForgiven {
		t.Fatalf("status=%s, want forgiven", tr.Status)
	}
	if y, mo, d := tr.LastActivityAt.In(ny).Date(); y != 2024 || mo != time.March || d != 10 {
		t.Fatalf("forgiven date=%v, want 2024-03-10", tr.LastActivityAt)
	}

	// 2024-11-03 夏令时结束，当天有 25 小时
	prev = StreakSnapshot{StreakDays: 5, LongestStreak: 5, LastActivityAt: at(ny, 2024, 11, 3, 0, 30)}
	tr, _ = m.Evaluate(prev, at(ny, 2024, 11, 3, 23, 50), shieldOf(false))
	if tr.Status != StatusAlreadyLogged {
		t.Fatalf("fall-back day status=%s, want already_logged", tr.Status)
	}
}

func TestStreakMachineForgivenAcrossMidnightDST(t *testing.T) {
	scl, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	m := StreakMachine{ForgivenessHours: 3}

	// 2024-09-08 智利夏令时在零点开始，当天不存在 00:30
	prev := StreakSnapshot{StreakDays: 4, LongestStreak: 4, LastActivityAt: at(scl, 2024, 9, 7, 20, 0)}
	tr, _ := m.Evaluate(prev, at(scl, 2024, 9, 9, 0, 30), shieldOf(false))
	if tr.Status != StatusForgiven || tr.StreakDays != 5 {
		t.Fatalf("tr=%+v, want forgiven 5", tr)
	}
	if y, mo, d := tr.LastActivityAt.In(scl).Date(); y != 2024 || mo != time.September || d != 8 {
		t.Fatalf("forgiven date=%v, want 2024-09-08", tr.LastActivityAt.In(scl))
	}
	if !tr.LastActivityAt.After(prev.LastActivityAt) {
		t.Fatalf("last activity went backwards: %v <= %v", tr.LastActivityAt, prev.LastActivityAt)
	}

	// 当天稍后的活动应延续而不是重置
	next := StreakSnapshot{StreakDays: tr.StreakDays, LongestStreak: tr.LongestStreak, LastActivityAt: tr.LastActivityAt}
	tr, _ = m.Evaluate(next, at(scl, 2024, 9, 9, 10, 0), shieldOf(false))
	if tr.Status != StatusExtended || tr.StreakDays != 6 {
		t.Fatalf("tr=%+v, want extended 6", tr)
	}
}

func TestSameClockOnKeepsWallTime(t *testing.T) {
	now := at(testLoc, 2024, 3, 1, 2, 15)
	got := sameClockOn(dateOf(now).addDays(-1), now)
	if want := at(testLoc, 2024, 2, 29, 2, 15); !got.Equal(want) {
		t.Fatalf("got=%v, want %v", got, want)
	}
}
