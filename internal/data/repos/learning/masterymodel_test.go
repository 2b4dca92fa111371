package learning

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/skillforge/skillforge-backend/internal/data/repos/testutil"
	"github.com/skillforge/skillforge-backend/internal/domain"
)

func TestMasteryModelRepoConditionalUpdate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasteryModelRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "mastery-model@test.local")

	patterns, _ := json.Marshal(domain.LearningPatterns{OptimalSessionMinutes: 25})
	created, err := repo.Create(ctx, tx, &domain.MasteryModel{
		UserID:   u.ID,
		Patterns: datatypes.JSON(patterns),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("fresh model version = %d, want 1", created.Version)
	}

	created.TotalActivitiesCompleted = 5
	if err := repo.UpdateConditional(ctx, tx, created, 1); err != nil {
		t.Fatalf("conditional update: %v", err)
	}
	if created.Version != 2 {
		t.Fatalf("version after update = %d, want 2", created.Version)
	}

	// A second writer still holding version 1 must lose.
	stale := &domain.MasteryModel{UserID: u.ID, TotalActivitiesCompleted: 99}
	err = repo.UpdateConditional(ctx, tx, stale, 1)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}

	got, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 2 || got.TotalActivitiesCompleted != 5 {
		t.Fatalf("stored model = v%d total=%d, stale write must not land", got.Version, got.TotalActivitiesCompleted)
	}
}

func TestMasteryModelRepoGetMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasteryModelRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "mastery-missing@test.local")
	got, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("missing model must come back nil, got %+v", got)
	}
}
