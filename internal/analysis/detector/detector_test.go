package detector

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	"github.com/skillforge/skillforge-backend/internal/domain"
)

func topicStats(acc, ret, speed float64, trend string) *aggregator.TopicStats {
	return &aggregator.TopicStats{
		Month: aggregator.Stat{
			AverageAccuracy:     acc,
			HasAccuracy:         true,
			AverageSpeedSeconds: speed,
			HasSpeed:            true,
			SampleCount:         10,
		},
		Week: aggregator.Stat{
			AverageAccuracy: acc,
			HasAccuracy:     true,
			RetentionRate:   ret,
			HasRetention:    true,
			SampleCount:     5,
		},
		Trend: trend,
	}
}

func snapshot(topics map[string]*aggregator.TopicStats) *aggregator.Snapshot {
	return &aggregator.Snapshot{
		UserID:                  uuid.New(),
		ComputedAt:              time.Now().UTC(),
		UserAverageSpeedSeconds: 60,
		HasUserSpeed:            true,
		Topics:                  topics,
	}
}

func input(snap *aggregator.Snapshot) Input {
	counts := map[string]int{}
	total := 0
	for topic, ts := range snap.Topics {
		counts[topic] = ts.Month.SampleCount
		total += ts.Month.SampleCount
	}
	return Input{Snapshot: snap, PracticeCounts: counts, TotalActivities: total}
}

func TestDetectThresholds(t *testing.T) {
	snap := snapshot(map[string]*aggregator.TopicStats{
		"weak/accuracy":  topicStats(55, 80, 60, domain.TrendStable),
		"weak/retention": topicStats(85, 40, 60, domain.TrendStable),
		"weak/speed":     topicStats(85, 80, 120, domain.TrendStable),
		"strong":         topicStats(90, 85, 50, domain.TrendImproving),
	})

	out := Detect(input(snap), time.Now().UTC(), DefaultConfig())

	byTopic := map[string]domain.Weakness{}
	for _, w := range out {
		byTopic[w.Topic] = w
	}
	if _, ok := byTopic["strong"]; ok {
		t.Fatalf("topic above every threshold must not be flagged")
	}
	if w, ok := byTopic["weak/accuracy"]; !ok || w.Type != domain.WeaknessTypeAccuracy {
		t.Fatalf("weak/accuracy: got %+v, want accuracy weakness", w)
	}
	if w, ok := byTopic["weak/retention"]; !ok || w.Type != domain.WeaknessTypeRetention {
		t.Fatalf("weak/retention: got %+v, want retention weakness", w)
	}
	if w, ok := byTopic["weak/speed"]; !ok || w.Type != domain.WeaknessTypeSpeed {
		t.Fatalf("weak/speed: got %+v, want speed weakness (120s vs 60s avg)", w)
	}
}

func TestSeverityOrdering(t *testing.T) {
	// Same frequency, so impact ordering follows severity: lower accuracy,
	// lower retention, and a declining trend must score strictly higher.
	snap := snapshot(map[string]*aggregator.TopicStats{
		"worse":  topicStats(55, 50, 60, domain.TrendDeclining),
		"milder": topicStats(65, 65, 60, domain.TrendStable),
	})

	out := Detect(input(snap), time.Now().UTC(), DefaultConfig())
	if len(out) != 2 {
		t.Fatalf("expected both topics flagged, got %d", len(out))
	}
	if out[0].Topic != "worse" {
		t.Fatalf("ranking = [%s, %s], want worse first", out[0].Topic, out[1].Topic)
	}
	if out[0].Severity <= out[1].Severity {
		t.Fatalf("severity(worse)=%v must exceed severity(milder)=%v", out[0].Severity, out[1].Severity)
	}
}

func TestDetectDeterministic(t *testing.T) {
	snap := snapshot(map[string]*aggregator.TopicStats{
		"b": topicStats(60, 50, 60, domain.TrendStable),
		"a": topicStats(60, 50, 60, domain.TrendStable),
		"c": topicStats(60, 50, 60, domain.TrendStable),
	})
	now := time.Now().UTC()

	first := Detect(input(snap), now, DefaultConfig())
	for i := 0; i < 5; i++ {
		again := Detect(input(snap), now, DefaultConfig())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ranking must be deterministic across runs")
		}
	}
	// Identical scores tie-break on topic name.
	if first[0].Topic != "a" || first[1].Topic != "b" || first[2].Topic != "c" {
		t.Fatalf("tie-break order = %s,%s,%s, want a,b,c", first[0].Topic, first[1].Topic, first[2].Topic)
	}
}

func TestDownweightHalvesImpact(t *testing.T) {
	snap := snapshot(map[string]*aggregator.TopicStats{
		"t": topicStats(55, 50, 60, domain.TrendStable),
	})
	now := time.Now().UTC()

	in := input(snap)
	base := Detect(in, now, DefaultConfig())

	in.Downweight = map[string]bool{"t": true}
	down := Detect(in, now, DefaultConfig())

	if len(base) != 1 || len(down) != 1 {
		t.Fatalf("expected one weakness in both passes")
	}
	want := base[0].ImpactScore * DefaultConfig().DownweightFactor
	if diff := down[0].ImpactScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("downweighted impact = %v, want %v", down[0].ImpactScore, want)
	}
	if down[0].Severity != base[0].Severity {
		t.Fatalf("downweight must scale impact only, severity changed %v -> %v", base[0].Severity, down[0].Severity)
	}
}

func TestMissingSignalsRenormalized(t *testing.T) {
	// Accuracy is the only available signal; its shortfall should not be
	// diluted by absent retention and speed weights.
	snap := snapshot(map[string]*aggregator.TopicStats{
		"t": {
			Month: aggregator.Stat{AverageAccuracy: 35, HasAccuracy: true, SampleCount: 10},
			Week:  aggregator.Stat{SampleCount: 2},
			Trend: domain.TrendStable,
		},
	})
	snap.HasUserSpeed = false

	out := Detect(input(snap), time.Now().UTC(), DefaultConfig())
	if len(out) != 1 {
		t.Fatalf("expected one weakness, got %d", len(out))
	}
	// shortfall = 1-35/70 = 0.5; weighted (0.4*0.5 + 0.1*0.5)/(0.5) = 0.5.
	if out[0].Severity < 0.45 || out[0].Severity > 0.55 {
		t.Fatalf("renormalized severity = %v, want ~0.5", out[0].Severity)
	}
}
