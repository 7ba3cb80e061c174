package domain_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"trivia-room-service/internal/domain"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestSanitizeQuestionsClampsShape(t *testing.T) {
	raw := decode(t, `[
		{"text": "Capital of France?", "options": ["Paris", "Rome", "Oslo", "Bern", "Kyiv"], "correctIndices": [0, 0, 1.5, "2", 9], "numCorrect": 7},
		{"prompt": 42, "choices": [1, true], "correctIndex": 1},
		{"text": "only one option", "options": ["x"], "correctIndices": [0]},
		{"text": "no correct", "options": ["x", "y"], "correctIndices": []},
		"not an object"
	]`)

	got := domain.SanitizeQuestions(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 playable questions, got %d: %+v", len(got), got)
	}

	q := got[0]
	if q.ID != "0" || q.Text != "Capital of France?" {
		t.Fatalf("unexpected id/text: %+v", q)
	}
	if len(q.Options) != domain.MaxOptions {
		t.Fatalf("expected options truncated to %d, got %v", domain.MaxOptions, q.Options)
	}
	if !reflect.DeepEqual(q.CorrectIndices, []int{0}) {
		t.Fatalf("expected correct indices [0], got %v", q.CorrectIndices)
	}
	if q.NumCorrect != 2 {
		t.Fatalf("expected numCorrect clamped to 2, got %d", q.NumCorrect)
	}

	alias := got[1]
	if alias.Text != "42" || !reflect.DeepEqual(alias.Options, []string{"1", "true"}) {
		t.Fatalf("expected coerced text/options, got %+v", alias)
	}
	if !reflect.DeepEqual(alias.CorrectIndices, []int{1}) || alias.NumCorrect != 1 {
		t.Fatalf("expected single correct index 1, got %+v", alias)
	}
}

func TestSanitizeQuestionsRejectsNonList(t *testing.T) {
	if got := domain.SanitizeQuestions(decode(t, `{"text":"x"}`)); len(got) != 0 {
		t.Fatalf("expected nothing from an object, got %+v", got)
	}
	if got := domain.SanitizeQuestions(nil); len(got) != 0 {
		t.Fatalf("expected nothing from nil, got %+v", got)
	}
}

func TestNormalizeQuestionInfersNumCorrect(t *testing.T) {
	q, ok := domain.NormalizeQuestion(domain.Question{
		Text:           "pick two",
		Options:        []string{"a", "b", "c"},
		CorrectIndices: []int{0, 2},
	})
	if !ok || q.NumCorrect != 2 {
		t.Fatalf("expected numCorrect inferred as 2, got %+v ok=%v", q, ok)
	}
}

func TestNormalizeQuestionKeepsExactSetReachable(t *testing.T) {
	q, ok := domain.NormalizeQuestion(domain.Question{
		Text:           "pick two",
		Options:        []string{"a", "b", "c"},
		CorrectIndices: []int{0, 2},
		NumCorrect:     1,
	})
	if !ok || q.NumCorrect != 2 {
		t.Fatalf("expected numCorrect raised to the correct set size, got %+v ok=%v", q, ok)
	}
	picked := domain.SanitizeSelections(q, []any{float64(2), float64(0)})
	if !domain.SameSet(picked, q.CorrectIndices) {
		t.Fatalf("expected the correct set to be selectable, got %v", picked)
	}

	if _, ok := domain.NormalizeQuestion(domain.Question{
		Text:           "pick three",
		Options:        []string{"a", "b", "c", "d"},
		CorrectIndices: []int{0, 1, 3},
	}); ok {
		t.Fatalf("expected more correct indices than selectable to be unplayable")
	}
}

func TestSanitizeSelections(t *testing.T) {
	single := domain.Question{Options: []string{"a", "b", "c"}, CorrectIndices: []int{1}, NumCorrect: 1}
	double := domain.Question{Options: []string{"a", "b", "c", "d"}, CorrectIndices: []int{1, 2}, NumCorrect: 2}

	cases := []struct {
		name string
		q    domain.Question
		raw  string
		want []int
	}{
		{"out of bounds dropped", single, `[7, -1, 2]`, []int{2}},
		{"non integers dropped", single, `["1", 0.5, null, 1]`, []int{1}},
		{"truncated to numCorrect", single, `[0, 1]`, []int{0}},
		{"deduplicated", double, `[3, 3, 3, 1]`, []int{3, 1}},
		{"scalar accepted", single, `2`, []int{2}},
		{"garbage yields empty", double, `{"a":1}`, []int{}},
	}
	for _, tc := range cases {
		got := domain.SanitizeSelections(tc.q, decode(t, tc.raw))
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
