package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/data/repos/testutil"
	"github.com/skillforge/skillforge-backend/internal/domain"
)

func record(userID uuid.UUID, topic string, occurredAt time.Time, accuracy float64) *domain.ActivityRecord {
	return &domain.ActivityRecord{
		UserID:     userID,
		ActivityID: uuid.New(),
		Type:       domain.ActivityTypeExercise,
		Topic:      topic,
		OccurredAt: occurredAt,
		Accuracy:   accuracy,
	}
}

func TestActivityRecordRepoAppendAndList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewActivityRecordRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "activity-list@test.local")
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Inserted newest-first; reads must come back oldest-first.
	rows := []*domain.ActivityRecord{
		record(u.ID, "algebra", now, 90),
		record(u.ID, "algebra", now.Add(-2*time.Hour), 70),
		record(u.ID, "geometry", now.Add(-time.Hour), 80),
	}
	if _, err := repo.Append(ctx, tx, rows); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := repo.ListByUserSince(ctx, tx, u.ID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list by user since: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].OccurredAt.Before(got[i-1].OccurredAt) {
			t.Fatalf("rows not ordered by occurred_at ascending")
		}
	}

	// Accepted records come back exactly as written.
	first := got[0]
	want := rows[1]
	if first.ActivityID != want.ActivityID || first.Topic != want.Topic ||
		first.Type != want.Type || first.Accuracy != want.Accuracy ||
		!first.OccurredAt.Equal(want.OccurredAt) {
		t.Fatalf("stored record diverged from input:\n got %+v\nwant %+v", first, want)
	}

	scoped, err := repo.ListByUserTopicSince(ctx, tx, u.ID, "algebra", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list by topic: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("topic rows = %d, want 2", len(scoped))
	}

	cutoff, err := repo.ListByUserSince(ctx, tx, u.ID, now.Add(-90*time.Minute))
	if err != nil {
		t.Fatalf("list with cutoff: %v", err)
	}
	if len(cutoff) != 2 {
		t.Fatalf("cutoff rows = %d, want 2", len(cutoff))
	}

	count, err := repo.CountByUser(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestActivityRecordRepoRecentByTopic(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewActivityRecordRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "activity-recent@test.local")
	now := time.Now().UTC().Truncate(time.Microsecond)

	var rows []*domain.ActivityRecord
	for i := 0; i < 5; i++ {
		rows = append(rows, record(u.ID, "calculus", now.Add(time.Duration(-i)*time.Hour), float64(50+i*10)))
	}
	if _, err := repo.Append(ctx, tx, rows); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := repo.ListRecentByTopic(ctx, tx, u.ID, "calculus", 3)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	// The 3 newest, returned oldest-first.
	if !got[0].OccurredAt.Equal(now.Add(-2 * time.Hour)) {
		t.Fatalf("first row occurred at %v, want the third-newest", got[0].OccurredAt)
	}
	if !got[2].OccurredAt.Equal(now) {
		t.Fatalf("last row occurred at %v, want the newest", got[2].OccurredAt)
	}

	empty, err := repo.ListRecentByTopic(ctx, tx, u.ID, "calculus", 0)
	if err != nil {
		t.Fatalf("list recent with zero limit: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("zero limit must return nothing")
	}
}

func TestActivityRecordRepoFullDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewActivityRecordRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "activity-delete@test.local")
	now := time.Now().UTC()

	if _, err := repo.Append(ctx, tx, []*domain.ActivityRecord{record(u.ID, "t", now, 80)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.FullDeleteByUserID(ctx, tx, u.ID); err != nil {
		t.Fatalf("full delete: %v", err)
	}

	// Soft-delete aside, erased rows must be gone from the raw table too.
	var count int64
	if err := tx.WithContext(ctx).Unscoped().
		Model(&domain.ActivityRecord{}).
		Where("user_id = ?", u.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("raw count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rows remain after full delete: %d", count)
	}
}
