package planner

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/skillforge/skillforge-backend/internal/domain"
)

// ErrCycle rejects goals whose prerequisite graph is not a partial order.
var ErrCycle = errors.New("prerequisite cycle in goal objectives")

// ErrNoObjectives rejects goals with nothing to decompose.
var ErrNoObjectives = errors.New("goal has no objectives")

type GoalConfig struct {
	// BaseMinutes is the estimate for a sub-objective at zero mastery.
	BaseMinutes int
	// MinMinutes floors every estimate.
	MinMinutes int
}

func DefaultGoalConfig() GoalConfig {
	return GoalConfig{BaseMinutes: 90, MinMinutes: 10}
}

// ObjectiveSpec is one candidate sub-objective of a goal, as supplied by the
// caller (or an upstream content analyzer).
type ObjectiveSpec struct {
	Name          string   `json:"name"`
	Topic         string   `json:"topic"`
	Prereqs       []string `json:"prereqs,omitempty"`
	TargetMastery float64  `json:"target_mastery"`
}

// PlannedObjective is a sub-objective placed in prerequisite order with a
// personalized time estimate.
type PlannedObjective struct {
	Name             string  `json:"name"`
	Topic            string  `json:"topic"`
	TargetMastery    float64 `json:"target_mastery"`
	CurrentMastery   float64 `json:"current_mastery"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	Order            int     `json:"order"`
}

type GoalPlan struct {
	Goal         string             `json:"goal"`
	Objectives   []PlannedObjective `json:"objectives"`
	TotalMinutes int                `json:"total_minutes"`
}

// DecomposeGoal orders objectives by their prerequisite partial order and
// attaches personalized estimates. Estimates are strictly decreasing in the
// user's current mastery of the objective's topic, so two users at different
// levels receive different numbers for the same objective.
func DecomposeGoal(goal string, specs []ObjectiveSpec, masteries map[string]*domain.TopicMastery, patterns domain.LearningPatterns, cfg GoalConfig) (*GoalPlan, error) {
	if len(specs) == 0 {
		return nil, ErrNoObjectives
	}

	byName := map[string]ObjectiveSpec{}
	for _, s := range specs {
		if s.Name == "" || s.Topic == "" {
			return nil, fmt.Errorf("objective missing name or topic")
		}
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate objective %q", s.Name)
		}
		byName[s.Name] = s
	}

	ordered, err := topoOrder(byName)
	if err != nil {
		return nil, err
	}

	plan := &GoalPlan{Goal: goal}
	for i, name := range ordered {
		spec := byName[name]
		current := 0.0
		if tm := masteries[spec.Topic]; tm != nil {
			current = tm.MasteryLevel
		}
		target := spec.TargetMastery
		if target <= 0 {
			target = 80
		}

		est := estimateMinutes(current, patterns, cfg)
		plan.Objectives = append(plan.Objectives, PlannedObjective{
			Name:             spec.Name,
			Topic:            spec.Topic,
			TargetMastery:    target,
			CurrentMastery:   current,
			EstimatedMinutes: est,
			Order:            i,
		})
		plan.TotalMinutes += est
	}
	return plan, nil
}

// estimateMinutes is strictly decreasing in mastery and shrinks further for
// users with a higher historical improvement rate.
func estimateMinutes(mastery float64, patterns domain.LearningPatterns, cfg GoalConfig) int {
	base := float64(cfg.BaseMinutes)
	scaled := base * (1.2 - mastery/100)
	rate := patterns.AverageImprovementRate
	if rate > 0 {
		scaled /= 1 + rate/10
	}
	minutes := int(math.Round(scaled))
	if minutes < cfg.MinMinutes {
		minutes = cfg.MinMinutes
	}
	return minutes
}

// topoOrder is Kahn's algorithm with lexicographic selection for a
// deterministic sequence.
func topoOrder(specs map[string]ObjectiveSpec) ([]string, error) {
	indegree := map[string]int{}
	dependents := map[string][]string{}
	for name := range specs {
		indegree[name] = 0
	}
	for name, spec := range specs {
		for _, pre := range spec.Prereqs {
			if _, ok := specs[pre]; !ok {
				return nil, fmt.Errorf("objective %q requires unknown prerequisite %q", name, pre)
			}
			indegree[name]++
			dependents[pre] = append(dependents[pre], name)
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = insertSorted(ready, dep)
			}
		}
	}

	if len(order) != len(specs) {
		return nil, ErrCycle
	}
	return order, nil
}

func insertSorted(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}
