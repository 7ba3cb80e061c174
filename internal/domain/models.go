package domain

import "time"

// Phase is the stage a room is in within the question lifecycle.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseQuestion    Phase = "question"
	PhaseReveal      Phase = "reveal"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseEnded       Phase = "ended"
)

// Role identifies what a connection is inside a room.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

const (
	// MaxOptions is the largest number of options a question may carry.
	MaxOptions = 4
	// MinOptions is the smallest number of options a playable question needs.
	MinOptions = 2
	// MaxSelect is the largest supported "number to select".
	MaxSelect = 2
)

// Question is a multiple-choice question. It is treated as immutable once a round starts.
type Question struct {
	ID             string   `json:"id" yaml:"id"`
	Text           string   `json:"text" yaml:"text"`
	Options        []string `json:"options" yaml:"options"`
	CorrectIndices []int    `json:"correctIndices" yaml:"correctIndices"`
	NumCorrect     int      `json:"numCorrect" yaml:"numCorrect"`
	TimeLimitSec   int      `json:"timeLimitSec,omitempty" yaml:"timeLimitSec,omitempty"`
}

// TimeLimit returns the declared time limit, zero when the question has none.
func (q Question) TimeLimit() time.Duration {
	if q.TimeLimitSec <= 0 {
		return 0
	}
	return time.Duration(q.TimeLimitSec) * time.Second
}

// QuestionBank is a named, stored collection of questions.
type QuestionBank struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Answer is a player's submission for the current question.
type Answer struct {
	Selections  []int
	SubmittedAt time.Time
}

// Player is a room member that answers questions. Seq records join order and
// breaks leaderboard ties.
type Player struct {
	Handle      string
	Name        string
	Score       int
	Seq         int
	Answer      *Answer
	LastDelta   int
	LastCorrect bool
}

// HasAnswered reports whether the player submitted for the current question.
func (p *Player) HasAnswered() bool {
	return p.Answer != nil
}

// ResetAnswer puts the player back into the unanswered state.
func (p *Player) ResetAnswer() {
	p.Answer = nil
}

// Standing is one leaderboard row.
type Standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RoundResult is a single player's outcome for the question just revealed.
type RoundResult struct {
	Name    string `json:"name"`
	Choices []int  `json:"choices"`
	Correct bool   `json:"correct"`
	Delta   int    `json:"delta"`
	Total   int    `json:"total"`
}
