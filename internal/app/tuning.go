package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skillforge/skillforge-backend/internal/analysis/detector"
	"github.com/skillforge/skillforge-backend/internal/mastery"
	"github.com/skillforge/skillforge-backend/internal/planner"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/scheduler"
	"github.com/skillforge/skillforge-backend/internal/services"
)

// Tunables bundles every analytical knob, resolved from defaults plus the
// optional YAML overrides file.
type Tunables struct {
	Analysis    services.AnalysisConfig
	Activity    services.ActivityConfig
	Schedule    services.ScheduleConfig
	MasteryRead services.MasteryReadConfig
	Mastery     mastery.Config
	Scheduler   scheduler.Config
	Sprint      planner.SprintConfig
	Goal        planner.GoalConfig
}

// tunablesFile mirrors the YAML layout. Every field is optional; absent
// fields keep their defaults.
type tunablesFile struct {
	Analysis struct {
		DeadlineSeconds  *float64 `yaml:"deadline_seconds"`
		TargetAccuracy   *float64 `yaml:"target_accuracy"`
		TargetRetention  *float64 `yaml:"target_retention"`
		SpeedRatio       *float64 `yaml:"speed_ratio"`
		AccuracyWeight   *float64 `yaml:"accuracy_weight"`
		RetentionWeight  *float64 `yaml:"retention_weight"`
		SpeedWeight      *float64 `yaml:"speed_weight"`
		TrendWeight      *float64 `yaml:"trend_weight"`
		DownweightFactor *float64 `yaml:"downweight_factor"`
	} `yaml:"analysis"`

	Mastery struct {
		AccuracyWeight      *float64 `yaml:"accuracy_weight"`
		RetentionWeight     *float64 `yaml:"retention_weight"`
		RecencyHalfLifeDays *float64 `yaml:"recency_half_life_days"`
		VelocityEpsilon     *float64 `yaml:"velocity_epsilon"`
	} `yaml:"mastery"`

	Scheduler struct {
		SuccessThreshold *float64 `yaml:"success_threshold"`
		BaseGrowth       *float64 `yaml:"base_growth"`
		FloorDays        *float64 `yaml:"floor_days"`
		CapDays          *float64 `yaml:"cap_days"`
		DormantLevel     *float64 `yaml:"dormant_level"`
		DormantAfterDays *int     `yaml:"dormant_after_days"`
	} `yaml:"scheduler"`

	Sprint struct {
		MinExercises       *int     `yaml:"min_exercises"`
		MaxExercises       *int     `yaml:"max_exercises"`
		MinDurationMinutes *int     `yaml:"min_duration_minutes"`
		MaxDurationMinutes *int     `yaml:"max_duration_minutes"`
		TTLHours           *float64 `yaml:"ttl_hours"`
	} `yaml:"sprint"`

	Schedule struct {
		RetentionFloor *float64 `yaml:"retention_floor"`
	} `yaml:"schedule"`
}

func DefaultTunables() Tunables {
	return Tunables{
		Analysis:    services.DefaultAnalysisConfig(),
		Activity:    services.DefaultActivityConfig(),
		Schedule:    services.DefaultScheduleConfig(),
		MasteryRead: services.DefaultMasteryReadConfig(),
		Mastery:     mastery.DefaultConfig(),
		Scheduler:   scheduler.DefaultConfig(),
		Sprint:      planner.DefaultSprintConfig(),
		Goal:        planner.DefaultGoalConfig(),
	}
}

// LoadTunables resolves the final knob values. A missing path means pure
// defaults; an unreadable or malformed file is an error, not a silent
// fallback.
func LoadTunables(path string, log *logger.Logger) (Tunables, error) {
	t := DefaultTunables()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tunables file: %w", err)
	}
	var file tunablesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return t, fmt.Errorf("parse tunables file: %w", err)
	}

	applyAnalysis(&t.Analysis.Detector, file)
	if v := file.Analysis.DeadlineSeconds; v != nil {
		t.Analysis.Deadline = time.Duration(*v * float64(time.Second))
	}

	if v := file.Mastery.AccuracyWeight; v != nil {
		t.Mastery.AccuracyWeight = *v
	}
	if v := file.Mastery.RetentionWeight; v != nil {
		t.Mastery.RetentionWeight = *v
	}
	if v := file.Mastery.RecencyHalfLifeDays; v != nil {
		t.Mastery.RecencyHalfLifeDays = *v
	}
	if v := file.Mastery.VelocityEpsilon; v != nil {
		t.Mastery.VelocityEpsilon = *v
	}

	if v := file.Scheduler.SuccessThreshold; v != nil {
		t.Scheduler.SuccessThreshold = *v
	}
	if v := file.Scheduler.BaseGrowth; v != nil {
		t.Scheduler.BaseGrowth = *v
	}
	if v := file.Scheduler.FloorDays; v != nil {
		t.Scheduler.FloorDays = *v
	}
	if v := file.Scheduler.CapDays; v != nil {
		t.Scheduler.CapDays = *v
	}
	if v := file.Scheduler.DormantLevel; v != nil {
		t.Scheduler.DormantMasteryLevel = *v
	}
	if v := file.Scheduler.DormantAfterDays; v != nil {
		t.Scheduler.DormantAfterDays = *v
	}

	if v := file.Sprint.MinExercises; v != nil {
		t.Sprint.MinExercises = *v
	}
	if v := file.Sprint.MaxExercises; v != nil {
		t.Sprint.MaxExercises = *v
	}
	if v := file.Sprint.MinDurationMinutes; v != nil {
		t.Sprint.MinDurationMinutes = *v
	}
	if v := file.Sprint.MaxDurationMinutes; v != nil {
		t.Sprint.MaxDurationMinutes = *v
	}
	if v := file.Sprint.TTLHours; v != nil {
		t.Sprint.SprintTTL = time.Duration(*v * float64(time.Hour))
	}

	if v := file.Schedule.RetentionFloor; v != nil {
		t.Schedule.RetentionFloor = *v
	}

	log.Info("Loaded tunables overrides", "path", path)
	return t, nil
}

func applyAnalysis(cfg *detector.Config, file tunablesFile) {
	if v := file.Analysis.TargetAccuracy; v != nil {
		cfg.TargetAccuracy = *v
	}
	if v := file.Analysis.TargetRetention; v != nil {
		cfg.TargetRetention = *v
	}
	if v := file.Analysis.SpeedRatio; v != nil {
		cfg.SpeedRatio = *v
	}
	if v := file.Analysis.AccuracyWeight; v != nil {
		cfg.AccuracyWeight = *v
	}
	if v := file.Analysis.RetentionWeight; v != nil {
		cfg.RetentionWeight = *v
	}
	if v := file.Analysis.SpeedWeight; v != nil {
		cfg.SpeedWeight = *v
	}
	if v := file.Analysis.TrendWeight; v != nil {
		cfg.TrendWeight = *v
	}
	if v := file.Analysis.DownweightFactor; v != nil {
		cfg.DownweightFactor = *v
	}
}
