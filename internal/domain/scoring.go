package domain

import (
	"fmt"
	"math"
	"time"
)

// Scoring policy names accepted by NewScorer.
const (
	ScoringSpeed    = "speed"
	ScoringExactSet = "exact"
)

// Submission is the answer state a scorer evaluates at reveal time.
type Submission struct {
	Selections []int
	Elapsed    time.Duration
	Answered   bool
}

// Outcome is the per-player result of scoring one question.
type Outcome struct {
	Correct bool
	Delta   int
}

// Scorer computes a score delta. Implementations must be pure.
type Scorer interface {
	Name() string
	Score(q Question, s Submission) Outcome
}

// NewScorer resolves a scoring policy by name. An empty name selects speed scoring.
func NewScorer(policy string, defaultLimit time.Duration) (Scorer, error) {
	switch policy {
	case "", ScoringSpeed:
		return SpeedScorer{DefaultLimit: defaultLimit}, nil
	case ScoringExactSet, "exact-set":
		return ExactSetScorer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScoring, policy)
}

// SpeedScorer awards 400 to 1000 points for a correct answer, decaying linearly
// with the time taken.
type SpeedScorer struct {
	DefaultLimit time.Duration
}

func (SpeedScorer) Name() string { return ScoringSpeed }

func (s SpeedScorer) Score(q Question, sub Submission) Outcome {
	limit := q.TimeLimit()
	if limit <= 0 {
		limit = s.DefaultLimit
	}
	elapsed := sub.Elapsed
	if !sub.Answered {
		elapsed = limit
	}
	if !sub.Answered || !SameSet(sub.Selections, q.CorrectIndices) {
		return Outcome{}
	}
	factor := 0.0
	if limit > 0 {
		factor = math.Max(0, 1-float64(elapsed)/float64(limit))
	}
	return Outcome{Correct: true, Delta: int(math.Round(400 + 600*factor))}
}

// ExactSetScorer awards a flat point when the selection set equals the correct set.
type ExactSetScorer struct{}

func (ExactSetScorer) Name() string { return ScoringExactSet }

func (ExactSetScorer) Score(q Question, sub Submission) Outcome {
	if !SameSet(sub.Selections, q.CorrectIndices) {
		return Outcome{}
	}
	return Outcome{Correct: true, Delta: 1}
}

// SameSet reports whether a and b contain the same distinct members.
// Two empty sets are never considered a match.
func SameSet(a, b []int) bool {
	if len(b) == 0 {
		return false
	}
	want := make(map[int]bool, len(b))
	for _, v := range b {
		want[v] = true
	}
	got := make(map[int]bool, len(a))
	for _, v := range a {
		if !want[v] {
			return false
		}
		got[v] = true
	}
	return len(got) == len(want)
}
