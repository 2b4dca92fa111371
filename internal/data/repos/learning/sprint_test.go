package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillforge/skillforge-backend/internal/data/repos/testutil"
	"github.com/skillforge/skillforge-backend/internal/domain"
)

func sprintRow(userID uuid.UUID, status string, expiresAt time.Time) *domain.MasterySprint {
	return &domain.MasterySprint{
		UserID:    userID,
		Status:    status,
		Exercises: datatypes.JSON([]byte(`[]`)),
		ExpiresAt: expiresAt,
	}
}

func TestMasterySprintRepoExpireOverdue(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasterySprintRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "sprint-expire@test.local")
	now := time.Now().UTC()

	overdue, err := repo.Create(ctx, tx, sprintRow(u.ID, domain.SprintStatusActive, now.Add(-time.Hour)))
	if err != nil {
		t.Fatalf("create overdue: %v", err)
	}
	live, err := repo.Create(ctx, tx, sprintRow(u.ID, domain.SprintStatusActive, now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create live: %v", err)
	}
	// Already terminal; the sweep must not touch it.
	done, err := repo.Create(ctx, tx, sprintRow(u.ID, domain.SprintStatusCompleted, now.Add(-time.Hour)))
	if err != nil {
		t.Fatalf("create completed: %v", err)
	}

	n, err := repo.ExpireOverdue(ctx, tx, now)
	if err != nil {
		t.Fatalf("expire overdue: %v", err)
	}
	if n < 1 {
		t.Fatalf("expired rows = %d, want at least 1", n)
	}

	gotOverdue, err := repo.GetByID(ctx, tx, overdue.ID)
	if err != nil {
		t.Fatalf("get overdue: %v", err)
	}
	if gotOverdue.Status != domain.SprintStatusExpired {
		t.Fatalf("overdue status = %s, want expired", gotOverdue.Status)
	}
	gotLive, err := repo.GetByID(ctx, tx, live.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if gotLive.Status != domain.SprintStatusActive {
		t.Fatalf("live sprint flipped to %s", gotLive.Status)
	}
	gotDone, err := repo.GetByID(ctx, tx, done.ID)
	if err != nil {
		t.Fatalf("get completed: %v", err)
	}
	if gotDone.Status != domain.SprintStatusCompleted {
		t.Fatalf("completed sprint flipped to %s", gotDone.Status)
	}

	active, err := repo.ListByUserID(ctx, tx, u.ID, domain.SprintStatusActive)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != live.ID {
		t.Fatalf("active list = %d rows", len(active))
	}
	all, err := repo.ListByUserID(ctx, tx, u.ID, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all sprints = %d, want 3", len(all))
	}
}

func TestMasterySprintRepoGetMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewMasterySprintRepo(db, testutil.Logger(t))

	got, err := repo.GetByID(context.Background(), tx, uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("missing sprint must come back nil")
	}
}
