package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/feedback"
	"github.com/skillforge/skillforge-backend/internal/planner"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

var (
	ErrSprintNotFound      = errors.New("sprint not found")
	ErrSprintNotActive     = errors.New("sprint is not active")
	ErrSprintExpired       = errors.New("sprint has expired")
	ErrSprintAlreadyActive = errors.New("an active sprint already exists")
	// ErrNoWeaknessRanking means sprint generation has no analysis pass to
	// plan against.
	ErrNoWeaknessRanking = errors.New("no weakness ranking available")
)

type EvaluateSprintInput struct {
	Accuracy       float64 `json:"accuracy"`
	SpeedSeconds   float64 `json:"speed_seconds"`
	CompletionRate float64 `json:"completion_rate"`
}

type SprintService interface {
	// GenerateMasterySprint plans a sprint against the user's current
	// weakness ranking. At most one sprint may be active per user.
	GenerateMasterySprint(ctx context.Context, userID uuid.UUID) (*domain.MasterySprint, error)
	// EvaluateSprint records sprint results against its success criteria.
	EvaluateSprint(ctx context.Context, userID, sprintID uuid.UUID, in EvaluateSprintInput) (*domain.MasterySprint, error)
	AbandonSprint(ctx context.Context, userID, sprintID uuid.UUID) error
	ListSprints(ctx context.Context, userID uuid.UUID, status string) ([]*domain.MasterySprint, error)
	// ExpireOverdue sweeps active sprints past their deadline.
	ExpireOverdue(ctx context.Context) (int64, error)
}

type sprintService struct {
	sprints  learningrepo.MasterySprintRepo
	models   learningrepo.MasteryModelRepo
	topics   learningrepo.TopicMasteryRepo
	fbRepo   learningrepo.FeedbackRepo
	analysis AnalysisService
	planner  *planner.Generator
	synth    *feedback.Synthesizer
	log      *logger.Logger
}

func NewSprintService(
	sprints learningrepo.MasterySprintRepo,
	models learningrepo.MasteryModelRepo,
	topics learningrepo.TopicMasteryRepo,
	fbRepo learningrepo.FeedbackRepo,
	analysis AnalysisService,
	gen *planner.Generator,
	synth *feedback.Synthesizer,
	baseLog *logger.Logger,
) SprintService {
	return &sprintService{
		sprints:  sprints,
		models:   models,
		topics:   topics,
		fbRepo:   fbRepo,
		analysis: analysis,
		planner:  gen,
		synth:    synth,
		log:      baseLog.With("service", "SprintService"),
	}
}

func (s *sprintService) GenerateMasterySprint(ctx context.Context, userID uuid.UUID) (*domain.MasterySprint, error) {
	now := time.Now().UTC()

	active, err := s.sprints.ListByUserID(ctx, nil, userID, domain.SprintStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active sprints: %w", err)
	}
	for _, sp := range active {
		if sp.ExpiresAt.After(now) {
			return nil, ErrSprintAlreadyActive
		}
		// Lazily expire what the sweep has not reached yet.
		sp.Status = domain.SprintStatusExpired
		if err := s.sprints.Update(ctx, nil, sp); err != nil {
			return nil, fmt.Errorf("expire stale sprint: %w", err)
		}
	}

	ranking, err := s.analysis.LatestRanking(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ranking == nil {
		ranking, err = s.analysis.AnalyzeWeaknesses(ctx, userID, nil)
		if err != nil {
			return nil, err
		}
	}
	if ranking == nil || len(ranking.Weaknesses) == 0 {
		return nil, ErrNoWeaknessRanking
	}

	view, err := s.modelView(ctx, userID)
	if err != nil {
		return nil, err
	}

	sprint, err := s.planner.Generate(ctx, userID, ranking.Weaknesses, view, now)
	if err != nil {
		return nil, err
	}
	return s.sprints.Create(ctx, nil, sprint)
}

func (s *sprintService) EvaluateSprint(ctx context.Context, userID, sprintID uuid.UUID, in EvaluateSprintInput) (*domain.MasterySprint, error) {
	sprint, err := s.sprints.GetByID(ctx, nil, sprintID)
	if err != nil {
		return nil, fmt.Errorf("load sprint: %w", err)
	}
	if sprint == nil || sprint.UserID != userID {
		return nil, ErrSprintNotFound
	}
	if sprint.Status != domain.SprintStatusActive {
		return nil, ErrSprintNotActive
	}

	now := time.Now().UTC()
	if now.After(sprint.ExpiresAt) {
		sprint.Status = domain.SprintStatusExpired
		if err := s.sprints.Update(ctx, nil, sprint); err != nil {
			return nil, fmt.Errorf("expire sprint: %w", err)
		}
		return nil, ErrSprintExpired
	}

	criteria := sprint.Criteria()
	results := domain.SprintResults{
		Accuracy:       in.Accuracy,
		SpeedSeconds:   in.SpeedSeconds,
		CompletionRate: in.CompletionRate,
		EvaluatedAt:    now,
	}
	results.CriteriaMet = in.Accuracy >= criteria.TargetAccuracy &&
		in.CompletionRate >= criteria.MinimumCompletion &&
		(criteria.TargetSpeedSeconds <= 0 || in.SpeedSeconds <= criteria.TargetSpeedSeconds)

	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode sprint results: %w", err)
	}
	sprint.Results = payload
	if results.CriteriaMet {
		sprint.Status = domain.SprintStatusCompleted
	}
	if err := s.sprints.Update(ctx, nil, sprint); err != nil {
		return nil, fmt.Errorf("persist sprint results: %w", err)
	}

	if results.CriteriaMet {
		s.celebrate(ctx, sprint, results)
	}
	return sprint, nil
}

// celebrate is advisory output; failures never fail the evaluation.
func (s *sprintService) celebrate(ctx context.Context, sprint *domain.MasterySprint, results domain.SprintResults) {
	view, err := s.modelView(ctx, sprint.UserID)
	if err != nil {
		s.log.Warn("celebration skipped", "sprint_id", sprint.ID, "error", err)
		return
	}
	entry, err := s.synth.OnSprintEvaluated(sprint, results, view.Masteries)
	if err != nil || entry == nil {
		if err != nil {
			s.log.Warn("celebration synthesis failed", "sprint_id", sprint.ID, "error", err)
		}
		return
	}
	if _, err := s.fbRepo.Create(ctx, nil, []*domain.FeedbackEntry{entry}); err != nil {
		s.log.Warn("failed to persist celebration", "sprint_id", sprint.ID, "error", err)
	}
}

func (s *sprintService) AbandonSprint(ctx context.Context, userID, sprintID uuid.UUID) error {
	sprint, err := s.sprints.GetByID(ctx, nil, sprintID)
	if err != nil {
		return fmt.Errorf("load sprint: %w", err)
	}
	if sprint == nil || sprint.UserID != userID {
		return ErrSprintNotFound
	}
	if sprint.Status != domain.SprintStatusActive {
		return ErrSprintNotActive
	}
	sprint.Status = domain.SprintStatusAbandoned
	return s.sprints.Update(ctx, nil, sprint)
}

func (s *sprintService) ListSprints(ctx context.Context, userID uuid.UUID, status string) ([]*domain.MasterySprint, error) {
	return s.sprints.ListByUserID(ctx, nil, userID, status)
}

func (s *sprintService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.sprints.ExpireOverdue(ctx, nil, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire overdue sprints: %w", err)
	}
	if n > 0 {
		s.log.Info("expired overdue sprints", "count", n)
	}
	return n, nil
}

func (s *sprintService) modelView(ctx context.Context, userID uuid.UUID) (planner.ModelView, error) {
	rows, err := s.topics.GetByUserID(ctx, nil, userID)
	if err != nil {
		return planner.ModelView{}, fmt.Errorf("load topic mastery: %w", err)
	}
	masteries := make(map[string]*domain.TopicMastery, len(rows))
	for _, row := range rows {
		masteries[row.Topic] = row
	}

	model, err := s.models.GetByUserID(ctx, nil, userID)
	if err != nil {
		return planner.ModelView{}, fmt.Errorf("load mastery model: %w", err)
	}
	return planner.ModelView{
		Patterns:  patternsFromModel(model),
		Masteries: masteries,
	}, nil
}
