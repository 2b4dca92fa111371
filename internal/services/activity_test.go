package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/domain"
)

func validInput() RecordActivityInput {
	return RecordActivityInput{
		UserID:         uuid.New(),
		ActivityID:     uuid.New(),
		Type:           domain.ActivityTypeExercise,
		Topic:          "algebra/fractions",
		ContentType:    "exercise",
		OccurredAt:     time.Now().UTC().Add(-time.Minute),
		SpeedSeconds:   42,
		Accuracy:       80,
		CompletionRate: 100,
	}
}

func TestValidateActivity(t *testing.T) {
	badDifficulty := 11

	cases := []struct {
		name   string
		mutate func(*RecordActivityInput)
		field  string
	}{
		{"valid", func(in *RecordActivityInput) {}, ""},
		{"missing user", func(in *RecordActivityInput) { in.UserID = uuid.Nil }, "user_id"},
		{"missing activity id", func(in *RecordActivityInput) { in.ActivityID = uuid.Nil }, "activity_id"},
		{"unknown type", func(in *RecordActivityInput) { in.Type = "osmosis" }, "type"},
		{"blank topic", func(in *RecordActivityInput) { in.Topic = "  " }, "topic"},
		{"zero timestamp", func(in *RecordActivityInput) { in.OccurredAt = time.Time{} }, "occurred_at"},
		{"future timestamp", func(in *RecordActivityInput) {
			in.OccurredAt = time.Now().UTC().Add(time.Hour)
		}, "occurred_at"},
		{"accuracy over range", func(in *RecordActivityInput) { in.Accuracy = 101 }, "accuracy"},
		{"accuracy under range", func(in *RecordActivityInput) { in.Accuracy = -1 }, "accuracy"},
		{"completion over range", func(in *RecordActivityInput) { in.CompletionRate = 130 }, "completion_rate"},
		{"zero speed", func(in *RecordActivityInput) { in.SpeedSeconds = 0 }, "speed_seconds"},
		{"negative speed", func(in *RecordActivityInput) { in.SpeedSeconds = -3 }, "speed_seconds"},
		{"difficulty out of range", func(in *RecordActivityInput) { in.Difficulty = &badDifficulty }, "difficulty"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := validateActivity(in)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected valid input to pass, got %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q to be flagged, got %v", tc.field, vErr.Fields)
			}
		})
	}
}
