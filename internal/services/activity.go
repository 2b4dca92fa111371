package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	"github.com/skillforge/skillforge-backend/internal/clients/redis"
	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	userrepo "github.com/skillforge/skillforge-backend/internal/data/repos/user"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/feedback"
	"github.com/skillforge/skillforge-backend/internal/mastery"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/scheduler"
)

// ErrUserNotFound is returned when an operation references an unknown user.
var ErrUserNotFound = errors.New("user not found")

// clockSkewTolerance bounds how far into the future an activity timestamp may
// sit before it is rejected.
const clockSkewTolerance = 5 * time.Minute

type RecordActivityInput struct {
	UserID         uuid.UUID `json:"user_id"`
	ActivityID     uuid.UUID `json:"activity_id"`
	Type           string    `json:"type"`
	Topic          string    `json:"topic"`
	ContentType    string    `json:"content_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	SpeedSeconds   float64   `json:"speed_seconds"`
	Accuracy       float64   `json:"accuracy"`
	CompletionRate float64   `json:"completion_rate"`
	Difficulty     *int      `json:"difficulty,omitempty"`
}

type RecordActivityResult struct {
	Record       *domain.ActivityRecord `json:"record,omitempty"`
	ModelVersion int64                  `json:"model_version,omitempty"`
	Ranking      *RankingResult         `json:"ranking,omitempty"`
	// Queued reports that the record could not be persisted and was parked
	// on the offline queue for later replay.
	Queued   bool       `json:"queued"`
	SprintID *uuid.UUID `json:"sprint_id,omitempty"`
}

type ActivityService interface {
	// RecordActivity validates and persists one activity record, then runs
	// the downstream pipeline: mastery update, schedule transition,
	// weakness re-analysis, and feedback synthesis.
	RecordActivity(ctx context.Context, in RecordActivityInput) (*RecordActivityResult, error)
	// GetMetrics returns the rolling per-topic statistics. An empty topic
	// returns every topic.
	GetMetrics(ctx context.Context, userID uuid.UUID, topic string) (*aggregator.Snapshot, error)
	// GetTrends returns the per-topic trend classification.
	GetTrends(ctx context.Context, userID uuid.UUID) (map[string]string, error)
	// ReplayPending drains the offline queue in arrival order.
	ReplayPending(ctx context.Context) (int, error)
}

type activityService struct {
	users      userrepo.UserRepo
	activities metrics.ActivityRecordRepo
	topics     learningrepo.TopicMasteryRepo
	feedbackDB learningrepo.FeedbackRepo

	engine   *mastery.Engine
	sched    *scheduler.Scheduler
	analysis AnalysisService
	sprints  SprintService
	synth    *feedback.Synthesizer
	cache    *redis.Cache
	queue    *redis.OfflineQueue
	log      *logger.Logger
	aggCfg   aggregator.Config

	// AutoSprintSeverity gates the ingestion-triggered sprint path.
	autoSprintSeverity float64
}

type ActivityConfig struct {
	Aggregator aggregator.Config
	// AutoSprintSeverity is the severity above which ingestion proposes a
	// sprint when the user has none active. Zero disables the trigger.
	AutoSprintSeverity float64
}

func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		Aggregator:         aggregator.DefaultConfig(),
		AutoSprintSeverity: 0.7,
	}
}

func NewActivityService(
	users userrepo.UserRepo,
	activities metrics.ActivityRecordRepo,
	topics learningrepo.TopicMasteryRepo,
	feedbackRepo learningrepo.FeedbackRepo,
	engine *mastery.Engine,
	sched *scheduler.Scheduler,
	analysis AnalysisService,
	sprints SprintService,
	synth *feedback.Synthesizer,
	cache *redis.Cache,
	queue *redis.OfflineQueue,
	baseLog *logger.Logger,
	cfg ActivityConfig,
) ActivityService {
	return &activityService{
		users:              users,
		activities:         activities,
		topics:             topics,
		feedbackDB:         feedbackRepo,
		engine:             engine,
		sched:              sched,
		analysis:           analysis,
		sprints:            sprints,
		synth:              synth,
		cache:              cache,
		queue:              queue,
		log:                baseLog.With("service", "ActivityService"),
		aggCfg:             cfg.Aggregator,
		autoSprintSeverity: cfg.AutoSprintSeverity,
	}
}

func (s *activityService) RecordActivity(ctx context.Context, in RecordActivityInput) (*RecordActivityResult, error) {
	if err := validateActivity(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, nil, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	rec := recordFromInput(in)

	// Context captured before the write feeds the feedback synthesis below:
	// prior attempts for the delta message, prior mastery for decline flags,
	// and the previous ranking for improvement acknowledgments.
	previous, err := s.activities.ListRecentByTopic(ctx, nil, in.UserID, in.Topic, 5)
	if err != nil {
		s.log.Warn("failed to load prior attempts", "user_id", in.UserID, "error", err)
		previous = nil
	}
	historical := s.historicalAccuracy(ctx, in.UserID)
	prevRanking, err := s.analysis.LatestRanking(ctx, in.UserID)
	if err != nil {
		s.log.Warn("failed to load prior ranking", "user_id", in.UserID, "error", err)
		prevRanking = nil
	}

	if _, err := s.activities.Append(ctx, nil, []*domain.ActivityRecord{rec}); err != nil {
		return s.parkOffline(ctx, in, err)
	}

	result := &RecordActivityResult{Record: rec}

	model, err := s.engine.Apply(ctx, in.UserID, []*domain.ActivityRecord{rec})
	if err != nil {
		return nil, fmt.Errorf("apply mastery update: %w", err)
	}
	result.ModelVersion = model.Version

	if rec.Type == domain.ActivityTypeDrill {
		if _, err := s.sched.RecordDrillOutcome(ctx, in.UserID, in.Topic, in.Accuracy, in.OccurredAt); err != nil {
			return nil, fmt.Errorf("record drill outcome: %w", err)
		}
	}
	s.observeDormancy(ctx, in.UserID, in.Topic)

	ranking, err := s.analysis.AnalyzeWeaknesses(ctx, in.UserID, nil)
	if err != nil {
		// The record and the model update already landed; analysis can be
		// recomputed on the next read.
		s.log.Warn("post-ingest analysis failed", "user_id", in.UserID, "error", err)
	} else {
		result.Ranking = ranking
	}

	s.synthesizeFeedback(ctx, rec, previous, historical, prevRanking, ranking)

	if err := s.cache.InvalidateModel(ctx, in.UserID); err != nil {
		s.log.Warn("model cache invalidation failed", "user_id", in.UserID, "error", err)
	}

	if id := s.maybeStartSprint(ctx, in.UserID, prevRanking, ranking); id != nil {
		result.SprintID = id
	}
	return result, nil
}

func (s *activityService) parkOffline(ctx context.Context, in RecordActivityInput, cause error) (*RecordActivityResult, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode pending activity: %w", err)
	}
	op := redis.PendingOp{
		Kind:       redis.OpAppendActivity,
		UserID:     in.UserID,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	if qErr := s.queue.Enqueue(ctx, op); qErr != nil {
		return nil, fmt.Errorf("persist activity: %w (offline queue also failed: %v)", cause, qErr)
	}
	s.log.Warn("activity parked on offline queue", "user_id", in.UserID, "activity_id", in.ActivityID, "cause", cause)
	return &RecordActivityResult{Queued: true}, nil
}

// ReplayPending re-runs parked ingestions in arrival order. The mastery
// recompute sorts by occurrence time, so late replay cannot corrupt history.
func (s *activityService) ReplayPending(ctx context.Context) (int, error) {
	return s.queue.ReplayPending(ctx, func(ctx context.Context, op redis.PendingOp) error {
		if op.Kind != redis.OpAppendActivity {
			s.log.Warn("dropping unknown pending op", "kind", op.Kind)
			return nil
		}
		var in RecordActivityInput
		if err := json.Unmarshal(op.Payload, &in); err != nil {
			s.log.Error("dropping undecodable pending op", "user_id", op.UserID, "error", err)
			return nil
		}
		rec := recordFromInput(in)
		if _, err := s.activities.Append(ctx, nil, []*domain.ActivityRecord{rec}); err != nil {
			return fmt.Errorf("replay append: %w", err)
		}
		if _, err := s.engine.Apply(ctx, in.UserID, []*domain.ActivityRecord{rec}); err != nil {
			return fmt.Errorf("replay mastery update: %w", err)
		}
		if rec.Type == domain.ActivityTypeDrill {
			if _, err := s.sched.RecordDrillOutcome(ctx, in.UserID, in.Topic, in.Accuracy, in.OccurredAt); err != nil {
				return fmt.Errorf("replay drill outcome: %w", err)
			}
		}
		return s.cache.InvalidateModel(ctx, in.UserID)
	})
}

func (s *activityService) GetMetrics(ctx context.Context, userID uuid.UUID, topic string) (*aggregator.Snapshot, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if topic == "" {
		return snap, nil
	}
	filtered := &aggregator.Snapshot{
		UserID:                  snap.UserID,
		ComputedAt:              snap.ComputedAt,
		UserAverageSpeedSeconds: snap.UserAverageSpeedSeconds,
		HasUserSpeed:            snap.HasUserSpeed,
		Topics:                  map[string]*aggregator.TopicStats{},
	}
	if ts, ok := snap.Topics[topic]; ok {
		filtered.Topics[topic] = ts
	}
	return filtered, nil
}

func (s *activityService) GetTrends(ctx context.Context, userID uuid.UUID) (map[string]string, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	trends := make(map[string]string, len(snap.Topics))
	for topic, ts := range snap.Topics {
		trends[topic] = ts.Trend
	}
	return trends, nil
}

func (s *activityService) snapshot(ctx context.Context, userID uuid.UUID) (*aggregator.Snapshot, error) {
	now := time.Now().UTC()
	records, err := s.activities.ListByUserSince(ctx, nil, userID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("load activity window: %w", err)
	}
	return aggregator.Compute(userID, records, now, s.aggCfg), nil
}

func (s *activityService) historicalAccuracy(ctx context.Context, userID uuid.UUID) map[string]float64 {
	rows, err := s.topics.GetByUserID(ctx, nil, userID)
	if err != nil {
		s.log.Warn("failed to load mastery rows", "user_id", userID, "error", err)
		return nil
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Topic] = row.AverageAccuracy
	}
	return out
}

func (s *activityService) observeDormancy(ctx context.Context, userID uuid.UUID, topic string) {
	rows, err := s.topics.GetByUserIDAndTopics(ctx, nil, userID, []string{topic})
	if err != nil || len(rows) == 0 {
		if err != nil {
			s.log.Warn("dormancy observation skipped", "user_id", userID, "topic", topic, "error", err)
		}
		return
	}
	if err := s.sched.ObserveMastery(ctx, userID, topic, rows[0].MasteryLevel, time.Now().UTC()); err != nil {
		s.log.Warn("dormancy observation failed", "user_id", userID, "topic", topic, "error", err)
	}
}

// synthesizeFeedback persists whatever entries the synthesizer produces.
// Feedback is advisory output; failures here never fail the ingestion.
func (s *activityService) synthesizeFeedback(
	ctx context.Context,
	rec *domain.ActivityRecord,
	previous []*domain.ActivityRecord,
	historical map[string]float64,
	prevRanking, ranking *RankingResult,
) {
	var entries []*domain.FeedbackEntry

	if entry, err := s.synth.OnActivity(rec, previous); err == nil && entry != nil {
		entries = append(entries, entry)
	} else if err != nil {
		s.log.Warn("activity feedback synthesis failed", "user_id", rec.UserID, "error", err)
	}

	if ranking != nil && prevRanking != nil {
		improved, _, err := s.synth.OnAnalysisPass(rec.UserID, prevRanking.Weaknesses, ranking.Weaknesses)
		if err != nil {
			s.log.Warn("improvement synthesis failed", "user_id", rec.UserID, "error", err)
		} else {
			entries = append(entries, improved...)
		}
	}

	if len(historical) > 0 {
		snap, err := s.snapshot(ctx, rec.UserID)
		if err != nil {
			s.log.Warn("decline snapshot failed", "user_id", rec.UserID, "error", err)
		} else {
			declines, _, err := s.synth.DeclineFlags(rec.UserID, snap, historical)
			if err != nil {
				s.log.Warn("decline synthesis failed", "user_id", rec.UserID, "error", err)
			} else {
				entries = append(entries, declines...)
			}
		}
	}

	if len(entries) == 0 {
		return
	}
	if _, err := s.feedbackDB.Create(ctx, nil, entries); err != nil {
		s.log.Warn("failed to persist feedback", "user_id", rec.UserID, "error", err)
	}
}

// maybeStartSprint proposes a sprint when a weakness crosses the severity
// gate and the user has none active. Best effort: generation failures are
// logged, never surfaced to the ingestion caller.
func (s *activityService) maybeStartSprint(ctx context.Context, userID uuid.UUID, prev, curr *RankingResult) *uuid.UUID {
	if s.sprints == nil || s.autoSprintSeverity <= 0 || curr == nil || len(curr.Weaknesses) == 0 {
		return nil
	}
	top := curr.Weaknesses[0]
	if top.Severity < s.autoSprintSeverity {
		return nil
	}
	if prev != nil {
		for _, w := range prev.Weaknesses {
			if w.Topic == top.Topic && w.Severity >= s.autoSprintSeverity {
				return nil // already known, trigger only on crossing
			}
		}
	}

	sprint, err := s.sprints.GenerateMasterySprint(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrSprintAlreadyActive) {
			s.log.Warn("auto sprint generation failed", "user_id", userID, "error", err)
		}
		return nil
	}
	s.log.Info("sprint auto-generated from ingestion", "user_id", userID, "sprint_id", sprint.ID, "topic", top.Topic)
	return &sprint.ID
}

func recordFromInput(in RecordActivityInput) *domain.ActivityRecord {
	return &domain.ActivityRecord{
		UserID:         in.UserID,
		ActivityID:     in.ActivityID,
		Type:           in.Type,
		Topic:          in.Topic,
		ContentType:    in.ContentType,
		OccurredAt:     in.OccurredAt.UTC(),
		SpeedSeconds:   in.SpeedSeconds,
		Accuracy:       in.Accuracy,
		CompletionRate: in.CompletionRate,
		Difficulty:     in.Difficulty,
	}
}

func validateActivity(in RecordActivityInput) error {
	fields := map[string]string{}

	if in.UserID == uuid.Nil {
		fields["user_id"] = "required"
	}
	if in.ActivityID == uuid.Nil {
		fields["activity_id"] = "required"
	}
	if !domain.ValidActivityType(in.Type) {
		fields["type"] = "unknown activity type"
	}
	if strings.TrimSpace(in.Topic) == "" {
		fields["topic"] = "required"
	}
	if in.OccurredAt.IsZero() {
		fields["occurred_at"] = "required"
	} else if in.OccurredAt.After(time.Now().UTC().Add(clockSkewTolerance)) {
		fields["occurred_at"] = "timestamp is in the future"
	}
	if in.Accuracy < 0 || in.Accuracy > 100 {
		fields["accuracy"] = "must be between 0 and 100"
	}
	if in.CompletionRate < 0 || in.CompletionRate > 100 {
		fields["completion_rate"] = "must be between 0 and 100"
	}
	if in.SpeedSeconds <= 0 {
		fields["speed_seconds"] = "must be positive"
	}
	if in.Difficulty != nil && (*in.Difficulty < 1 || *in.Difficulty > 10) {
		fields["difficulty"] = "must be between 1 and 10"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
