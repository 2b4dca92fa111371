// Package aggregator turns raw activity records into rolling per-topic
// statistics over 1/7/30-day windows plus a trailing-attempts window.
package aggregator

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/domain"
)

const (
	WindowDay   = "1d"
	WindowWeek  = "7d"
	WindowMonth = "30d"
)

type Config struct {
	// MinSamples is the floor below which a rate is reported as
	// insufficient data instead of a numeric value.
	MinSamples int
	// TrendMargin is the accuracy-point gap between the halves of the
	// trailing window required to call a trend.
	TrendMargin float64
	// TrailingAttempts bounds the trend window.
	TrailingAttempts int
}

func DefaultConfig() Config {
	return Config{
		MinSamples:       3,
		TrendMargin:      2.0,
		TrailingAttempts: 10,
	}
}

// Stat is one topic's aggregate over a single window. The Has* flags are the
// insufficient-data markers: when false the numeric value must not be read.
type Stat struct {
	AverageAccuracy     float64 `json:"average_accuracy"`
	HasAccuracy         bool    `json:"has_accuracy"`
	AverageSpeedSeconds float64 `json:"average_speed_seconds"`
	HasSpeed            bool    `json:"has_speed"`
	RetentionRate       float64 `json:"retention_rate"`
	HasRetention        bool    `json:"has_retention"`
	SampleCount         int     `json:"sample_count"`
}

type TopicStats struct {
	Topic string `json:"topic"`

	Day   Stat `json:"day"`
	Week  Stat `json:"week"`
	Month Stat `json:"month"`

	Trend         string `json:"trend"`
	TrailingCount int    `json:"trailing_count"`

	LastComputedAt time.Time `json:"last_computed_at"`
}

type Snapshot struct {
	UserID     uuid.UUID `json:"user_id"`
	ComputedAt time.Time `json:"computed_at"`

	UserAverageSpeedSeconds float64 `json:"user_average_speed_seconds"`
	HasUserSpeed            bool    `json:"has_user_speed"`

	Topics map[string]*TopicStats `json:"topics"`
}

// Compute derives a snapshot from activity records covering the trailing 30
// days, ordered oldest-first. Records outside the 30-day window are ignored.
func Compute(userID uuid.UUID, records []*domain.ActivityRecord, now time.Time, cfg Config) *Snapshot {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 3
	}
	if cfg.TrailingAttempts <= 0 {
		cfg.TrailingAttempts = 10
	}

	snap := &Snapshot{
		UserID:     userID,
		ComputedAt: now,
		Topics:     map[string]*TopicStats{},
	}

	monthStart := now.AddDate(0, 0, -30)
	weekStart := now.AddDate(0, 0, -7)
	dayStart := now.AddDate(0, 0, -1)

	byTopic := map[string][]*domain.ActivityRecord{}
	var speedSum float64
	var speedCount int

	for _, rec := range records {
		if rec == nil || rec.OccurredAt.Before(monthStart) || rec.OccurredAt.After(now) {
			continue
		}
		byTopic[rec.Topic] = append(byTopic[rec.Topic], rec)
		if rec.SpeedSeconds > 0 {
			speedSum += rec.SpeedSeconds
			speedCount++
		}
	}

	if speedCount > 0 {
		snap.UserAverageSpeedSeconds = speedSum / float64(speedCount)
		snap.HasUserSpeed = true
	}

	for topic, recs := range byTopic {
		ts := &TopicStats{
			Topic:          topic,
			Day:            windowStat(recs, dayStart, cfg.MinSamples),
			Week:           windowStat(recs, weekStart, cfg.MinSamples),
			Month:          windowStat(recs, monthStart, cfg.MinSamples),
			LastComputedAt: now,
		}
		ts.Trend, ts.TrailingCount = trend(recs, cfg)
		snap.Topics[topic] = ts
	}

	return snap
}

func windowStat(records []*domain.ActivityRecord, start time.Time, minSamples int) Stat {
	var st Stat
	var accSum, spdSum float64
	var retSum float64
	var retCount int

	for _, rec := range records {
		if rec.OccurredAt.Before(start) {
			continue
		}
		st.SampleCount++
		accSum += rec.Accuracy
		spdSum += rec.SpeedSeconds
		// Retention is measured on recall attempts only.
		if rec.Type == domain.ActivityTypeDrill {
			retSum += rec.Accuracy
			retCount++
		}
	}

	if st.SampleCount >= minSamples {
		st.AverageAccuracy = accSum / float64(st.SampleCount)
		st.HasAccuracy = true
		st.AverageSpeedSeconds = spdSum / float64(st.SampleCount)
		st.HasSpeed = true
	}
	if retCount >= minSamples {
		st.RetentionRate = retSum / float64(retCount)
		st.HasRetention = true
	}
	return st
}

// trend compares the mean accuracy of the most recent half of the trailing
// window against the earlier half.
func trend(records []*domain.ActivityRecord, cfg Config) (string, int) {
	n := len(records)
	window := records
	if n > cfg.TrailingAttempts {
		window = records[n-cfg.TrailingAttempts:]
	}
	count := len(window)
	if count < 4 {
		return domain.TrendStable, count
	}

	mid := count / 2
	earlier := mean(window[:mid])
	later := mean(window[mid:])

	switch {
	case later-earlier > cfg.TrendMargin:
		return domain.TrendImproving, count
	case earlier-later > cfg.TrendMargin:
		return domain.TrendDeclining, count
	default:
		return domain.TrendStable, count
	}
}

func mean(records []*domain.ActivityRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range records {
		sum += rec.Accuracy
	}
	return sum / float64(len(records))
}
