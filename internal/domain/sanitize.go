package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceInt accepts only integral numbers as produced by a JSON decoder.
func CoerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// CoerceText renders a loosely typed scalar as text.
func CoerceText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	case int:
		return strconv.Itoa(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// SanitizeQuestions converts an untrusted question list into playable questions.
// Entries that are not objects, or that cannot be played after normalization, are dropped.
func SanitizeQuestions(raw any) []Question {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Question, 0, len(list))
	for i, item := range list {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := Question{
			ID:   CoerceText(first(fields, "id")),
			Text: CoerceText(first(fields, "text", "prompt")),
		}
		if q.ID == "" {
			q.ID = strconv.Itoa(i)
		}
		if opts, ok := first(fields, "options", "choices").([]any); ok {
			for _, o := range opts {
				q.Options = append(q.Options, CoerceText(o))
			}
		}
		switch c := first(fields, "correctIndices", "correctIndex").(type) {
		case []any:
			for _, v := range c {
				if n, ok := CoerceInt(v); ok {
					q.CorrectIndices = append(q.CorrectIndices, n)
				}
			}
		default:
			if n, ok := CoerceInt(c); ok {
				q.CorrectIndices = []int{n}
			}
		}
		if n, ok := CoerceInt(fields["numCorrect"]); ok {
			q.NumCorrect = n
		}
		if n, ok := CoerceInt(fields["timeLimitSec"]); ok {
			q.TimeLimitSec = n
		}
		if nq, ok := NormalizeQuestion(q); ok {
			out = append(out, nq)
		}
	}
	return out
}

// NormalizeQuestion clamps a question into the supported shape. It reports false
// when the result has too few options, no valid correct index, or more correct
// indices than a player may select.
func NormalizeQuestion(q Question) (Question, bool) {
	q.Text = strings.TrimSpace(q.Text)
	if len(q.Options) > MaxOptions {
		q.Options = q.Options[:MaxOptions]
	}
	q.Options = append([]string(nil), q.Options...)

	seen := make(map[int]bool, len(q.CorrectIndices))
	correct := make([]int, 0, len(q.CorrectIndices))
	for _, idx := range q.CorrectIndices {
		if idx < 0 || idx >= len(q.Options) || seen[idx] {
			continue
		}
		seen[idx] = true
		correct = append(correct, idx)
		if len(correct) == MaxOptions {
			break
		}
	}
	q.CorrectIndices = correct

	// selections are truncated to NumCorrect, so it can never be below the
	// size of the correct set
	if q.NumCorrect < len(correct) {
		q.NumCorrect = len(correct)
	}
	if q.NumCorrect < 1 {
		q.NumCorrect = 1
	}
	if q.NumCorrect > MaxSelect {
		q.NumCorrect = MaxSelect
	}
	if q.TimeLimitSec < 0 {
		q.TimeLimitSec = 0
	}

	if len(q.Options) < MinOptions || len(correct) == 0 || len(correct) > MaxSelect {
		return q, false
	}
	return q, true
}

// NormalizeQuestions applies NormalizeQuestion to every entry and keeps the playable ones.
func NormalizeQuestions(qs []Question) []Question {
	out := make([]Question, 0, len(qs))
	for i, q := range qs {
		if q.ID == "" {
			q.ID = strconv.Itoa(i)
		}
		if nq, ok := NormalizeQuestion(q); ok {
			out = append(out, nq)
		}
	}
	return out
}

// SanitizeSelections keeps integer indices within the question's option bounds,
// drops duplicates, and truncates to the number the question asks for.
func SanitizeSelections(q Question, raw any) []int {
	list, ok := raw.([]any)
	if !ok {
		if n, ok := CoerceInt(raw); ok {
			list = []any{float64(n)}
		}
	}
	out := make([]int, 0, q.NumCorrect)
	seen := make(map[int]bool, len(list))
	for _, v := range list {
		if len(out) == q.NumCorrect {
			break
		}
		n, ok := CoerceInt(v)
		if !ok || n < 0 || n >= len(q.Options) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func first(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
