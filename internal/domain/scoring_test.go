package domain_test

import (
	"errors"
	"testing"
	"time"

	"trivia-room-service/internal/domain"
)

func singleChoice(limitSec int) domain.Question {
	return domain.Question{
		ID:             "q1",
		Text:           "Pick C",
		Options:        []string{"A", "B", "C", "D"},
		CorrectIndices: []int{2},
		NumCorrect:     1,
		TimeLimitSec:   limitSec,
	}
}

func TestSpeedScorerBounds(t *testing.T) {
	scorer := domain.SpeedScorer{DefaultLimit: 20 * time.Second}
	q := singleChoice(10)

	cases := []struct {
		name    string
		sub     domain.Submission
		correct bool
		delta   int
	}{
		{"instant", domain.Submission{Selections: []int{2}, Answered: true}, true, 1000},
		{"half time", domain.Submission{Selections: []int{2}, Elapsed: 5 * time.Second, Answered: true}, true, 700},
		{"at limit", domain.Submission{Selections: []int{2}, Elapsed: 10 * time.Second, Answered: true}, true, 400},
		{"after limit", domain.Submission{Selections: []int{2}, Elapsed: 30 * time.Second, Answered: true}, true, 400},
		{"wrong", domain.Submission{Selections: []int{1}, Answered: true}, false, 0},
		{"empty selection", domain.Submission{Selections: []int{}, Answered: true}, false, 0},
		{"never answered", domain.Submission{}, false, 0},
	}
	for _, tc := range cases {
		out := scorer.Score(q, tc.sub)
		if out.Correct != tc.correct || out.Delta != tc.delta {
			t.Fatalf("%s: expected (%v,%d), got (%v,%d)", tc.name, tc.correct, tc.delta, out.Correct, out.Delta)
		}
	}
}

func TestSpeedScorerUsesDefaultLimit(t *testing.T) {
	scorer := domain.SpeedScorer{DefaultLimit: 20 * time.Second}
	out := scorer.Score(singleChoice(0), domain.Submission{Selections: []int{2}, Elapsed: 10 * time.Second, Answered: true})
	if out.Delta != 700 {
		t.Fatalf("expected 700 with 20s default limit, got %d", out.Delta)
	}
}

func TestSpeedScorerIsDeterministic(t *testing.T) {
	scorer := domain.SpeedScorer{}
	q := singleChoice(15)
	sub := domain.Submission{Selections: []int{2}, Elapsed: 3217 * time.Millisecond, Answered: true}
	want := scorer.Score(q, sub)
	for i := 0; i < 50; i++ {
		if got := scorer.Score(q, sub); got != want {
			t.Fatalf("expected %+v on every call, got %+v", want, got)
		}
	}
}

func TestExactSetScorer(t *testing.T) {
	q := domain.Question{
		Options:        []string{"A", "B", "C", "D"},
		CorrectIndices: []int{0, 3},
		NumCorrect:     2,
	}
	scorer := domain.ExactSetScorer{}

	cases := []struct {
		name       string
		selections []int
		correct    bool
	}{
		{"exact pair", []int{3, 0}, true},
		{"pair plus extra", []int{0, 3, 1}, false},
		{"partial", []int{0}, false},
		{"wrong pair", []int{1, 2}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		out := scorer.Score(q, domain.Submission{Selections: tc.selections, Answered: tc.selections != nil})
		if out.Correct != tc.correct {
			t.Fatalf("%s: expected correct=%v, got %v", tc.name, tc.correct, out.Correct)
		}
		if tc.correct && out.Delta != 1 {
			t.Fatalf("%s: expected flat 1 point, got %d", tc.name, out.Delta)
		}
		if !tc.correct && out.Delta != 0 {
			t.Fatalf("%s: expected 0 points, got %d", tc.name, out.Delta)
		}
	}
}

func TestNewScorer(t *testing.T) {
	if s, err := domain.NewScorer("", time.Second); err != nil || s.Name() != domain.ScoringSpeed {
		t.Fatalf("expected speed scorer by default, got %v %v", s, err)
	}
	if s, err := domain.NewScorer("exact", 0); err != nil || s.Name() != domain.ScoringExactSet {
		t.Fatalf("expected exact scorer, got %v %v", s, err)
	}
	if _, err := domain.NewScorer("lottery", 0); !errors.Is(err, domain.ErrUnknownScoring) {
		t.Fatalf("expected unknown scoring error, got %v", err)
	}
}
