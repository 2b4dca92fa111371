// Package detector scores and ranks per-topic weaknesses from aggregated
// statistics.
package detector

import (
	"math"
	"sort"
	"time"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	"github.com/skillforge/skillforge-backend/internal/domain"
)

type Config struct {
	TargetAccuracy  float64 // accuracy below this flags a weakness
	TargetRetention float64 // 7-day retention below this flags a weakness
	SpeedRatio      float64 // topic speed above ratio*userAvg flags a weakness

	AccuracyWeight  float64
	RetentionWeight float64
	SpeedWeight     float64
	TrendWeight     float64

	// DownweightFactor scales the impact of topics the feedback loop marked
	// as recently improved.
	DownweightFactor float64
}

func DefaultConfig() Config {
	return Config{
		TargetAccuracy:   70,
		TargetRetention:  60,
		SpeedRatio:       1.5,
		AccuracyWeight:   0.4,
		RetentionWeight:  0.3,
		SpeedWeight:      0.2,
		TrendWeight:      0.1,
		DownweightFactor: 0.5,
	}
}

type Input struct {
	Snapshot *aggregator.Snapshot
	// PracticeCounts and TotalActivities drive topic frequency.
	PracticeCounts  map[string]int
	TotalActivities int
	// Importance is an external weighting input, default 1.0 per topic.
	Importance map[string]float64
	// Downweight lists topics whose next pass should count for less.
	Downweight map[string]bool
}

// Detect returns every weak topic ranked by descending impact score with a
// deterministic tie-break (severity desc, then topic asc).
func Detect(in Input, now time.Time, cfg Config) []domain.Weakness {
	if in.Snapshot == nil {
		return nil
	}

	var out []domain.Weakness
	for topic, stats := range in.Snapshot.Topics {
		w, ok := score(topic, stats, in, now, cfg)
		if ok {
			out = append(out, w)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ImpactScore != out[j].ImpactScore {
			return out[i].ImpactScore > out[j].ImpactScore
		}
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

func score(topic string, stats *aggregator.TopicStats, in Input, now time.Time, cfg Config) (domain.Weakness, bool) {
	snap := in.Snapshot
	month := stats.Month
	week := stats.Week

	lowAccuracy := month.HasAccuracy && month.AverageAccuracy < cfg.TargetAccuracy
	slowSpeed := month.HasSpeed && snap.HasUserSpeed &&
		month.AverageSpeedSeconds > cfg.SpeedRatio*snap.UserAverageSpeedSeconds
	lowRetention := week.HasRetention && week.RetentionRate < cfg.TargetRetention

	if !lowAccuracy && !slowSpeed && !lowRetention {
		return domain.Weakness{}, false
	}

	// Each available signal contributes its weighted shortfall; weights of
	// missing signals are renormalized away rather than treated as zeros.
	var weighted, totalWeight float64

	accShortfall := 0.0
	if month.HasAccuracy {
		accShortfall = 1 - month.AverageAccuracy/cfg.TargetAccuracy
		weighted += cfg.AccuracyWeight * math.Max(0, accShortfall)
		totalWeight += cfg.AccuracyWeight
	}

	retShortfall := 0.0
	if week.HasRetention {
		retShortfall = 1 - week.RetentionRate/cfg.TargetRetention
		weighted += cfg.RetentionWeight * math.Max(0, retShortfall)
		totalWeight += cfg.RetentionWeight
	}

	speedDeficit := 0.0
	if month.HasSpeed && snap.HasUserSpeed && snap.UserAverageSpeedSeconds > 0 {
		// Positive when the topic is slower than the user's average.
		speedDeficit = math.Max(0, (month.AverageSpeedSeconds-snap.UserAverageSpeedSeconds)/month.AverageSpeedSeconds)
		weighted += cfg.SpeedWeight * speedDeficit
		totalWeight += cfg.SpeedWeight
	}

	trendFactor := 0.5
	switch stats.Trend {
	case domain.TrendDeclining:
		trendFactor = 1.0
	case domain.TrendImproving:
		trendFactor = 0.0
	}
	weighted += cfg.TrendWeight * trendFactor
	totalWeight += cfg.TrendWeight

	fullWeight := cfg.AccuracyWeight + cfg.RetentionWeight + cfg.SpeedWeight + cfg.TrendWeight
	severity := weighted
	if totalWeight > 0 && totalWeight < fullWeight {
		severity = weighted * fullWeight / totalWeight
	}
	severity = clamp01(severity)

	frequency := 0.0
	if in.TotalActivities > 0 {
		frequency = float64(in.PracticeCounts[topic]) / float64(in.TotalActivities)
	}
	importance := 1.0
	if v, ok := in.Importance[topic]; ok && v > 0 {
		importance = v
	}

	impact := severity * frequency * importance
	if in.Downweight[topic] {
		impact *= cfg.DownweightFactor
	}

	return domain.Weakness{
		Topic:       topic,
		Type:        weaknessType(lowAccuracy, slowSpeed, lowRetention, accShortfall, speedDeficit, retShortfall),
		Severity:    severity,
		ImpactScore: impact,
		DetectedAt:  now,
	}, true
}

// weaknessType picks the failing signal with the largest relative shortfall.
func weaknessType(lowAcc, slowSpeed, lowRet bool, accShortfall, speedDeficit, retShortfall float64) string {
	best := ""
	bestVal := math.Inf(-1)
	if lowAcc && accShortfall > bestVal {
		best = domain.WeaknessTypeAccuracy
		bestVal = accShortfall
	}
	if slowSpeed && speedDeficit > bestVal {
		best = domain.WeaknessTypeSpeed
		bestVal = speedDeficit
	}
	if lowRet && retShortfall > bestVal {
		best = domain.WeaknessTypeRetention
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
