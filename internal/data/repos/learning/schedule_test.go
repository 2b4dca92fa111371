package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/data/repos/testutil"
	"github.com/skillforge/skillforge-backend/internal/domain"
)

func scheduleEntry(userID uuid.UUID, topic string, dueAt time.Time) *domain.RecallScheduleEntry {
	return &domain.RecallScheduleEntry{
		UserID:              userID,
		Topic:               topic,
		NextDueAt:           dueAt,
		CurrentIntervalDays: 1,
	}
}

func TestRecallScheduleRepoListDue(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRecallScheduleRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "schedule-due@test.local")
	now := time.Now().UTC().Truncate(time.Microsecond)
	dormantCutoff := now.Add(-21 * 24 * time.Hour)

	overdue := scheduleEntry(u.ID, "overdue", now.Add(-time.Hour))
	future := scheduleEntry(u.ID, "future", now.Add(time.Hour))

	// Dormant long enough to be excluded.
	longDormant := scheduleEntry(u.ID, "long-dormant", now.Add(-time.Hour))
	since := now.Add(-30 * 24 * time.Hour)
	longDormant.DormantSince = &since

	// Above threshold only recently; still due.
	freshDormant := scheduleEntry(u.ID, "fresh-dormant", now.Add(-2*time.Hour))
	recently := now.Add(-2 * 24 * time.Hour)
	freshDormant.DormantSince = &recently

	for _, e := range []*domain.RecallScheduleEntry{overdue, future, longDormant, freshDormant} {
		if err := repo.Upsert(ctx, tx, e); err != nil {
			t.Fatalf("upsert %s: %v", e.Topic, err)
		}
	}

	due, err := repo.ListDue(ctx, tx, u.ID, now, dormantCutoff)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due entries = %d, want 2", len(due))
	}
	// Ordered by next_due_at ascending.
	if due[0].Topic != "fresh-dormant" || due[1].Topic != "overdue" {
		t.Fatalf("due order = [%s %s]", due[0].Topic, due[1].Topic)
	}
}

func TestRecallScheduleRepoUpsertInPlace(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRecallScheduleRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "schedule-upsert@test.local")
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := scheduleEntry(u.ID, "algebra", now.Add(24*time.Hour))
	if err := repo.Upsert(ctx, tx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := scheduleEntry(u.ID, "algebra", now.Add(48*time.Hour))
	second.CurrentIntervalDays = 2
	second.ConsecutiveSuccesses = 1
	second.LastAccuracy = 85
	if err := repo.Upsert(ctx, tx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("get by user: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	if got.CurrentIntervalDays != 2 || got.ConsecutiveSuccesses != 1 || got.LastAccuracy != 85 {
		t.Fatalf("upsert did not update interval state: %+v", got)
	}
	if !got.NextDueAt.Equal(now.Add(48 * time.Hour)) {
		t.Fatalf("next due = %v, want pushed out", got.NextDueAt)
	}

	single, err := repo.GetByUserIDAndTopic(ctx, tx, u.ID, "algebra")
	if err != nil {
		t.Fatalf("get by topic: %v", err)
	}
	if single == nil || single.Topic != "algebra" {
		t.Fatalf("get by topic = %+v", single)
	}

	missing, err := repo.GetByUserIDAndTopic(ctx, tx, u.ID, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing entry must come back nil")
	}
}
