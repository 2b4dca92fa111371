package learning

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	"github.com/skillforge/skillforge-backend/internal/data/repos/testutil"
	userrepo "github.com/skillforge/skillforge-backend/internal/data/repos/user"
	"github.com/skillforge/skillforge-backend/internal/domain"
)

// Seeds a row into every user-owned table, erases child-first the way the
// erasure flow does, and verifies nothing readable survives, soft-delete
// markers included.
func TestFullDeleteLeavesNothingReadable(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	users := userrepo.NewUserRepo(db, log)
	activities := metrics.NewActivityRecordRepo(db, log)
	models := NewMasteryModelRepo(db, log)
	topics := NewTopicMasteryRepo(db, log)
	rankings := NewWeaknessRankingRepo(db, log)
	schedule := NewRecallScheduleRepo(db, log)
	sprints := NewMasterySprintRepo(db, log)
	fbRepo := NewFeedbackRepo(db, log)

	u := testutil.SeedUser(t, ctx, tx, "erasure@test.local")
	now := time.Now().UTC()
	blob := datatypes.JSON([]byte(`{}`))

	if _, err := activities.Append(ctx, tx, []*domain.ActivityRecord{{
		UserID: u.ID, ActivityID: u.ID, Type: domain.ActivityTypeDrill,
		Topic: "t", OccurredAt: now,
	}}); err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	if _, err := models.Create(ctx, tx, &domain.MasteryModel{UserID: u.ID, Patterns: blob}); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	if err := topics.Upsert(ctx, tx, []*domain.TopicMastery{{UserID: u.ID, Topic: "t", Trend: domain.TrendStable}}); err != nil {
		t.Fatalf("seed topic mastery: %v", err)
	}
	if _, err := rankings.Create(ctx, tx, &domain.WeaknessRanking{UserID: u.ID, Weaknesses: blob, ComputedAt: now}); err != nil {
		t.Fatalf("seed ranking: %v", err)
	}
	if err := schedule.Upsert(ctx, tx, &domain.RecallScheduleEntry{UserID: u.ID, Topic: "t", NextDueAt: now}); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	if _, err := sprints.Create(ctx, tx, &domain.MasterySprint{
		UserID: u.ID, Status: domain.SprintStatusActive, Exercises: blob, ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed sprint: %v", err)
	}
	if _, err := fbRepo.Create(ctx, tx, []*domain.FeedbackEntry{{
		UserID: u.ID, Kind: domain.FeedbackKindActivity, Payload: blob,
	}}); err != nil {
		t.Fatalf("seed feedback: %v", err)
	}

	deletes := []struct {
		name string
		fn   func() error
	}{
		{"feedback", func() error { return fbRepo.FullDeleteByUserID(ctx, tx, u.ID) }},
		{"sprints", func() error { return sprints.FullDeleteByUserID(ctx, tx, u.ID) }},
		{"schedule", func() error { return schedule.FullDeleteByUserID(ctx, tx, u.ID) }},
		{"rankings", func() error { return rankings.FullDeleteByUserID(ctx, tx, u.ID) }},
		{"topic mastery", func() error { return topics.FullDeleteByUserID(ctx, tx, u.ID) }},
		{"mastery model", func() error { return models.FullDeleteByUserID(ctx, tx, u.ID) }},
		{"activities", func() error { return activities.FullDeleteByUserID(ctx, tx, u.ID) }},
		{"user", func() error { return users.FullDeleteByID(ctx, tx, u.ID) }},
	}
	for _, d := range deletes {
		if err := d.fn(); err != nil {
			t.Fatalf("delete %s: %v", d.name, err)
		}
	}

	tables := map[string]interface{}{
		"feedback":      &domain.FeedbackEntry{},
		"sprints":       &domain.MasterySprint{},
		"schedule":      &domain.RecallScheduleEntry{},
		"rankings":      &domain.WeaknessRanking{},
		"topic mastery": &domain.TopicMastery{},
		"mastery model": &domain.MasteryModel{},
		"activities":    &domain.ActivityRecord{},
	}
	for name, model := range tables {
		var count int64
		if err := tx.WithContext(ctx).Unscoped().Model(model).
			Where("user_id = ?", u.ID).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", name, err)
		}
		if count != 0 {
			t.Fatalf("%s rows survived erasure: %d", name, count)
		}
	}

	var userCount int64
	if err := tx.WithContext(ctx).Unscoped().Model(&domain.User{}).
		Where("id = ?", u.ID).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 0 {
		t.Fatalf("user row survived erasure")
	}
}
