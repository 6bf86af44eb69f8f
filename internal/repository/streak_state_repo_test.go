package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/yuqie6/StreakKeeper/internal/testutil"
)

func TestStreakStateRepositoryInitAndGet(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewStreakStateRepository(db)
	ctx := context.Background()

	got, err := repo.GetStreakState(ctx, "u1")
	if err != nil || got != nil {
		t.Fatalf("missing state: got=%+v err=%v, want nil nil", got, err)
	}

	state, err := repo.InitStreakState(ctx, "u1")
	if err != nil {
		t.Fatalf("InitStreakState error: %v", err)
	}
	if state.StreakDays != 0 || state.LongestStreak != 0 || state.TotalActivityPoints != 0 || state.LastActivityAt != 0 {
		t.Fatalf("init state not zeroed: %+v", state)
	}

	// 重复初始化不覆盖已有数据
	if err := repo.AddActivityPoints(ctx, "u1", 1.5); err != nil {
		t.Fatalf("AddActivityPoints error: %v", err)
	}
	again, err := repo.InitStreakState(ctx, "u1")
	if err != nil {
		t.Fatalf("InitStreakState again error: %v", err)
	}
	if again.TotalActivityPoints != 1.5 {
		t.Fatalf("points=%v, want 1.5", again.TotalActivityPoints)
	}
}

func TestStreakStateRepositoryUpdateCAS(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewStreakStateRepository(db)
	ctx := context.Background()

	if _, err := repo.InitStreakState(ctx, "u1"); err != nil {
		t.Fatalf("InitStreakState error: %v", err)
	}

	err := repo.UpdateStreakState(ctx, StreakUpdate{
		UserID:         "u1",
		StreakDays:     1,
		LastActivityAt: 1000,
		WeightDelta:    2,
	})
	if err != nil {
		t.Fatalf("first update error: %v", err)
	}

	// 旧令牌再次写入应冲突
	err = repo.UpdateStreakState(ctx, StreakUpdate{
		UserID:         "u1",
		StreakDays:     5,
		LastActivityAt: 2000,
		WeightDelta:    1,
	})
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("stale update err=%v, want ErrConcurrencyConflict", err)
	}

	err = repo.UpdateStreakState(ctx, StreakUpdate{
		UserID:                 "u1",
		StreakDays:             2,
		LastActivityAt:         2000,
		WeightDelta:            1,
		ExpectedLastActivityAt: 1000,
		ExpectedStreakDays:     1,
	})
	if err != nil {
		t.Fatalf("second update error: %v", err)
	}

	got, _ := repo.GetStreakState(ctx, "u1")
	if got.StreakDays != 2 || got.LongestStreak != 2 || got.TotalActivityPoints != 3 || got.LastActivityAt != 2000 {
		t.Fatalf("got=%+v", got)
	}
}

func TestStreakStateRepositoryLongestNeverDecreases(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewStreakStateRepository(db)
	ctx := context.Background()
	_, _ = repo.InitStreakState(ctx, "u1")

	_ = repo.UpdateStreakState(ctx, StreakUpdate{UserID: "u1", StreakDays: 4, LastActivityAt: 10})
	if err := repo.UpdateStreakState(ctx, StreakUpdate{
		UserID: "u1", StreakDays: 1, LastActivityAt: 20,
		ExpectedLastActivityAt: 10, ExpectedStreakDays: 4,
	}); err != nil {
		t.Fatalf("reset update error: %v", err)
	}

	got, _ := repo.GetStreakState(ctx, "u1")
	if got.StreakDays != 1 || got.LongestStreak != 4 {
		t.Fatalf("streak=%d longest=%d, want 1 and 4", got.StreakDays, got.LongestStreak)
	}
}

func TestStreakStateRepositoryRejectsBackwardTime(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewStreakStateRepository(db)
	ctx := context.Background()
	_, _ = repo.InitStreakState(ctx, "u1")

	err := repo.UpdateStreakState(ctx, StreakUpdate{
		UserID: "u1", StreakDays: 1, LastActivityAt: 5, ExpectedLastActivityAt: 10,
	})
	if err == nil || errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("err=%v, want validation error", err)
	}
}

func TestStreakStateRepositoryAddPointsMissingUser(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewStreakStateRepository(db)

	if err := repo.AddActivityPoints(context.Background(), "ghost", 1); err == nil {
		t.Fatalf("expected error for missing user")
	}
}
