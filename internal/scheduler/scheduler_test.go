package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/domain"
)

func entry(intervalDays float64, streak int) domain.RecallScheduleEntry {
	return domain.RecallScheduleEntry{
		UserID:               uuid.New(),
		Topic:                "t",
		CurrentIntervalDays:  intervalDays,
		ConsecutiveSuccesses: streak,
	}
}

func TestNextStateGrowsOnSuccess(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()

	next := NextState(entry(10, 0), 80, now, cfg)
	if next.CurrentIntervalDays <= 10 {
		t.Fatalf("interval after success = %v, want growth above 10", next.CurrentIntervalDays)
	}
	// Threshold accuracy gets exactly the base growth factor.
	if got, want := next.CurrentIntervalDays, 10*cfg.BaseGrowth; got != want {
		t.Fatalf("interval = %v, want %v", got, want)
	}
	if next.ConsecutiveSuccesses != 1 {
		t.Fatalf("streak = %d, want 1", next.ConsecutiveSuccesses)
	}
	if wantDue := now.Add(time.Duration(next.CurrentIntervalDays * 24 * float64(time.Hour))); !next.NextDueAt.Equal(wantDue) {
		t.Fatalf("next due = %v, want %v", next.NextDueAt, wantDue)
	}
}

func TestNextStateAccuracyAndStreakBonus(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()

	atThreshold := NextState(entry(10, 0), 80, now, cfg)
	perfect := NextState(entry(10, 0), 100, now, cfg)
	if perfect.CurrentIntervalDays <= atThreshold.CurrentIntervalDays {
		t.Fatalf("higher accuracy must grow faster: %v vs %v", perfect.CurrentIntervalDays, atThreshold.CurrentIntervalDays)
	}

	noStreak := NextState(entry(10, 0), 90, now, cfg)
	onStreak := NextState(entry(10, 3), 90, now, cfg)
	if onStreak.CurrentIntervalDays <= noStreak.CurrentIntervalDays {
		t.Fatalf("streak must grow faster: %v vs %v", onStreak.CurrentIntervalDays, noStreak.CurrentIntervalDays)
	}

	// The streak bonus saturates at the cap.
	atCap := NextState(entry(10, cfg.StreakCap), 90, now, cfg)
	overCap := NextState(entry(10, cfg.StreakCap+10), 90, now, cfg)
	if atCap.CurrentIntervalDays != overCap.CurrentIntervalDays {
		t.Fatalf("streak bonus must saturate: %v vs %v", atCap.CurrentIntervalDays, overCap.CurrentIntervalDays)
	}
}

func TestNextStateShrinksOnFailure(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()

	next := NextState(entry(8, 4), 50, now, cfg)
	if next.CurrentIntervalDays != 4 {
		t.Fatalf("interval after failure = %v, want 4 (halved)", next.CurrentIntervalDays)
	}
	if next.ConsecutiveSuccesses != 0 {
		t.Fatalf("failure must reset the streak, got %d", next.ConsecutiveSuccesses)
	}
}

func TestNextStateFloorAndCap(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()

	floored := NextState(entry(1.2, 0), 20, now, cfg)
	if floored.CurrentIntervalDays != cfg.FloorDays {
		t.Fatalf("interval = %v, want floor %v", floored.CurrentIntervalDays, cfg.FloorDays)
	}

	capped := NextState(entry(55, 5), 100, now, cfg)
	if capped.CurrentIntervalDays != cfg.CapDays {
		t.Fatalf("interval = %v, want cap %v", capped.CurrentIntervalDays, cfg.CapDays)
	}
}

func TestNextStateFirstExposure(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()

	// A zero interval (never drilled) starts from the floor.
	next := NextState(entry(0, 0), 95, now, cfg)
	if next.CurrentIntervalDays < cfg.FloorDays {
		t.Fatalf("first interval = %v, must be at least the floor", next.CurrentIntervalDays)
	}
	if next.CurrentIntervalDays > cfg.FloorDays*(cfg.BaseGrowth+cfg.AccuracyBonus+cfg.StreakBonus*float64(cfg.StreakCap)) {
		t.Fatalf("first interval = %v, grew more than one step allows", next.CurrentIntervalDays)
	}
}
