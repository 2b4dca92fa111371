package mastery

import (
	"math"
	"time"

	"github.com/skillforge/skillforge-backend/internal/domain"
)

type Config struct {
	WindowDays int

	// Blend weights for masteryLevel; monotonic in both inputs, result
	// clamped to [0,100].
	AccuracyWeight  float64
	RetentionWeight float64

	// RecencyHalfLifeDays controls the decay of older attempts in the
	// recency-weighted accuracy.
	RecencyHalfLifeDays float64

	// HistorySize bounds the masteryLevel snapshots kept for velocity.
	HistorySize int
	// VelocityEpsilon is the band around zero slope treated as stable.
	VelocityEpsilon float64

	// MaxRetries bounds the optimistic-concurrency retry loop.
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		WindowDays:          30,
		AccuracyWeight:      0.6,
		RetentionWeight:     0.4,
		RecencyHalfLifeDays: 7,
		HistorySize:         10,
		VelocityEpsilon:     0.5,
		MaxRetries:          3,
	}
}

// TopicComputation is the pure recompute result for one topic.
type TopicComputation struct {
	MasteryLevel        float64
	Confidence          float64
	AverageAccuracy     float64
	AverageSpeedSeconds float64
	RetentionRate       float64
	PracticeCount       int
	LastPracticed       time.Time
}

// ComputeTopic recomputes a topic's mastery from its activity records. Only
// records inside the trailing window influence the result; older input is
// ignored, so a caller passing extra history gets an identical answer.
func ComputeTopic(records []*domain.ActivityRecord, now time.Time, cfg Config) (TopicComputation, bool) {
	windowStart := now.AddDate(0, 0, -cfg.WindowDays)

	var out TopicComputation
	var accSum, spdSum float64
	var weightedAcc, weightSum float64
	var retSum float64
	var retCount int

	for _, rec := range records {
		if rec == nil || rec.OccurredAt.Before(windowStart) || rec.OccurredAt.After(now) {
			continue
		}
		out.PracticeCount++
		accSum += rec.Accuracy
		spdSum += rec.SpeedSeconds
		if rec.OccurredAt.After(out.LastPracticed) {
			out.LastPracticed = rec.OccurredAt
		}

		ageDays := now.Sub(rec.OccurredAt).Hours() / 24
		w := math.Pow(0.5, ageDays/cfg.RecencyHalfLifeDays)
		weightedAcc += w * rec.Accuracy
		weightSum += w

		if rec.Type == domain.ActivityTypeDrill {
			retSum += rec.Accuracy
			retCount++
		}
	}

	if out.PracticeCount == 0 {
		return out, false
	}

	n := float64(out.PracticeCount)
	out.AverageAccuracy = accSum / n
	out.AverageSpeedSeconds = spdSum / n

	recencyAcc := weightedAcc / weightSum
	if retCount > 0 {
		out.RetentionRate = retSum / float64(retCount)
	} else {
		// No recall attempts yet; retention follows accuracy until drills
		// provide a real signal.
		out.RetentionRate = recencyAcc
	}

	level := cfg.AccuracyWeight*recencyAcc + cfg.RetentionWeight*out.RetentionRate
	out.MasteryLevel = clamp(level, 0, 100)
	out.Confidence = n / (n + 5)

	return out, true
}

// Velocity fits a least-squares slope to the masteryLevel history (points per
// snapshot) and classifies the trend with an epsilon band around zero.
func Velocity(history []domain.MasteryPoint, epsilon float64) (float64, string) {
	n := len(history)
	if n < 2 {
		return 0, domain.TrendStable
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range history {
		x := float64(i)
		sumX += x
		sumY += p.Level
		sumXY += x * p.Level
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0, domain.TrendStable
	}
	slope := (fn*sumXY - sumX*sumY) / denom

	switch {
	case slope > epsilon:
		return slope, domain.TrendImproving
	case slope < -epsilon:
		return slope, domain.TrendDeclining
	default:
		return slope, domain.TrendStable
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
