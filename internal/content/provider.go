// Package content is the boundary to the external exercise/content
// collaborator. The provider may be unavailable; callers treat that as a
// retryable condition, never as fatal to unrelated state.
package content

import (
	"context"
	"errors"

	"github.com/skillforge/skillforge-backend/internal/domain"
)

// ErrUnavailable signals a transient provider outage.
var ErrUnavailable = errors.New("content provider unavailable")

type Request struct {
	Topic         string `json:"topic"`
	Type          string `json:"type"`
	ContentType   string `json:"content_type,omitempty"`
	MinDifficulty int    `json:"min_difficulty"`
	MaxDifficulty int    `json:"max_difficulty"`
	Count         int    `json:"count"`
}

type Provider interface {
	// FetchExercises returns a finite set of exercises for a topic/
	// difficulty/type request. It may return fewer than requested.
	FetchExercises(ctx context.Context, req Request) ([]domain.Exercise, error)
}
