package app

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"trivia-room-service/internal/domain"
)

const maxNameLength = 32

// Publisher is the part of the Gateway a room talks to.
type Publisher interface {
	Subscribe(pin, handle string)
	Unsubscribe(pin, handle string)
	Broadcast(pin string, ev domain.Event)
	Unicast(handle string, ev domain.Event)
}

// Scheduler runs fn once after d. The returned func cancels it if it has not fired.
type Scheduler func(d time.Duration, fn func()) (cancel func())

func afterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// RoomSettings are per-deployment game rules.
type RoomSettings struct {
	// MaxQuestions caps the initial questionCount for a fresh room.
	MaxQuestions int
	// DefaultTimeLimit applies to questions that declare none. Zero disables auto-reveal for them.
	DefaultTimeLimit time.Duration
	// EagerReveal reveals as soon as every player has answered.
	EagerReveal bool
	// LeaderboardDelay moves REVEAL to LEADERBOARD automatically. Zero leaves it to the host.
	LeaderboardDelay time.Duration
	Scorer           domain.Scorer
}

// RoomOption customizes a Room; used mostly by tests.
type RoomOption func(*Room)

func WithClock(now func() time.Time) RoomOption {
	return func(r *Room) { r.now = now }
}

func WithScheduler(s Scheduler) RoomOption {
	return func(r *Room) { r.schedule = s }
}

func WithRand(rnd *rand.Rand) RoomOption {
	return func(r *Room) { r.rnd = rnd }
}

// Room is a single quiz game. All mutable state is guarded by mu, and every
// broadcast happens while mu is held so members only see completed transitions.
type Room struct {
	pin  string
	host string

	mu            sync.Mutex
	questions     []domain.Question
	questionCount int
	index         int
	phase         domain.Phase
	accepting     bool
	players       map[string]*domain.Player
	seq           int
	startedAt     time.Time
	round         int
	cancelTimer   func()
	closed        bool
	lastActivity  time.Time

	settings RoomSettings
	pub      Publisher
	now      func() time.Time
	schedule Scheduler
	rnd      *rand.Rand
}

// NewRoom builds a lobby room. It has no side effects until Open is called.
func NewRoom(pin, host string, questions []domain.Question, settings RoomSettings, pub Publisher, opts ...RoomOption) *Room {
	if settings.Scorer == nil {
		settings.Scorer = domain.SpeedScorer{DefaultLimit: settings.DefaultTimeLimit}
	}
	r := &Room{
		pin:       pin,
		host:      host,
		questions: append([]domain.Question(nil), questions...),
		index:     -1,
		phase:     domain.PhaseLobby,
		players:   make(map[string]*domain.Player),
		settings:  settings,
		pub:       pub,
		now:       time.Now,
		schedule:  afterFunc,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rnd == nil {
		r.rnd = rand.New(rand.NewSource(r.now().UnixNano()))
	}
	r.questionCount = len(r.questions)
	if settings.MaxQuestions > 0 && r.questionCount > settings.MaxQuestions {
		r.questionCount = settings.MaxQuestions
	}
	r.lastActivity = r.now()
	return r
}

func (r *Room) Pin() string  { return r.pin }
func (r *Room) Host() string { return r.host }

// Open subscribes the host and tells it the room exists.
func (r *Room) Open() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pub.Subscribe(r.pin, r.host)
	r.pub.Unicast(r.host, domain.Event{Type: domain.EventRoomCreated, Payload: domain.RoomCreatedPayload{
		Pin:           r.pin,
		QuestionCount: r.questionCount,
	}})
	r.pushRosterLocked()
}

// ReplaceQuestions swaps the question set before the game starts. Mid-game edits are rejected.
func (r *Room) ReplaceQuestions(requester string, questions []domain.Question, desired int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.host {
		return 0, domain.ErrNotHost
	}
	if r.closed || r.phase != domain.PhaseLobby {
		return 0, domain.ErrInvalidPhase
	}
	r.touchLocked()
	if len(questions) > 0 {
		r.questions = append([]domain.Question(nil), questions...)
	}
	if desired <= 0 {
		desired = r.questionCount
	}
	r.questionCount = clamp(desired, 1, len(r.questions))
	r.pub.Unicast(r.host, domain.Event{Type: domain.EventQuestionsUpdated, Payload: domain.QuestionsUpdatedPayload{
		QuestionCount: r.questionCount,
		Available:     len(r.questions),
	}})
	return r.questionCount, nil
}

// Join adds a player, or renames one that is already present.
func (r *Room) Join(handle, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.phase == domain.PhaseEnded {
		return domain.ErrRoomNotFound
	}
	if handle == r.host {
		return domain.ErrHostCannotJoin
	}
	r.touchLocked()
	name = cleanName(name)
	if p, ok := r.players[handle]; ok {
		p.Name = name
	} else {
		r.seq++
		r.players[handle] = &domain.Player{Handle: handle, Name: name, Seq: r.seq}
	}
	r.pub.Subscribe(r.pin, handle)
	r.pub.Unicast(handle, domain.Event{Type: domain.EventRoomJoined, Payload: domain.RoomJoinedPayload{Pin: r.pin, Name: name}})
	r.membersChangedLocked()

	if r.phase == domain.PhaseQuestion && r.index >= 0 {
		r.pub.Unicast(handle, domain.Event{Type: domain.EventQuestion, Payload: r.questionPayloadLocked()})
	}
	return nil
}

// Leave removes a player. The host leaving is handled by Close.
func (r *Room) Leave(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[handle]; !ok {
		return
	}
	r.touchLocked()
	delete(r.players, handle)
	r.pub.Unsubscribe(r.pin, handle)
	if r.closed {
		return
	}
	r.membersChangedLocked()
	if r.phase == domain.PhaseQuestion && r.accepting {
		r.progressLocked()
	}
}

// Start moves the room from LOBBY to the first question.
func (r *Room) Start(requester string, count int, shuffle bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.host {
		return domain.ErrNotHost
	}
	if r.closed || r.phase != domain.PhaseLobby {
		return domain.ErrInvalidPhase
	}
	if len(r.questions) == 0 {
		return domain.ErrNoQuestions
	}
	r.touchLocked()
	if count > 0 {
		r.questionCount = clamp(count, 1, len(r.questions))
	}
	r.questionCount = clamp(r.questionCount, 1, len(r.questions))
	if shuffle {
		qs := append([]domain.Question(nil), r.questions...)
		r.rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		r.questions = qs
	}
	for _, p := range r.players {
		p.Score = 0
		p.LastDelta = 0
		p.LastCorrect = false
		p.ResetAnswer()
	}
	r.index = 0
	r.pub.Broadcast(r.pin, domain.Event{Type: domain.EventGameStarted, Payload: domain.GameStartedPayload{Total: r.questionCount}})
	r.beginQuestionLocked()
	r.pushRosterLocked()
	return nil
}

// Answer stores a player's first submission for the current question.
func (r *Room) Answer(handle string, raw any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.phase != domain.PhaseQuestion || !r.accepting {
		return domain.ErrInvalidPhase
	}
	p, ok := r.players[handle]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	r.touchLocked()
	if p.HasAnswered() {
		r.pub.Unicast(handle, domain.Event{Type: domain.EventAnswerDuplicate, Payload: domain.AnswerAckPayload{
			Choices: p.Answer.Selections,
			Already: true,
		}})
		return domain.ErrAlreadyAnswered
	}
	selections := domain.SanitizeSelections(r.questions[r.index], raw)
	p.Answer = &domain.Answer{Selections: selections, SubmittedAt: r.now()}
	r.pub.Unicast(handle, domain.Event{Type: domain.EventAnswerReceived, Payload: domain.AnswerAckPayload{Choices: selections}})
	r.progressLocked()
	return nil
}

// Reveal closes answering for the current question and scores it.
func (r *Room) Reveal(requester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.host {
		return domain.ErrNotHost
	}
	if r.closed || r.phase != domain.PhaseQuestion {
		return domain.ErrInvalidPhase
	}
	r.touchLocked()
	r.revealLocked()
	return nil
}

// ShowLeaderboard moves REVEAL to LEADERBOARD on the host's request.
func (r *Room) ShowLeaderboard(requester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.host {
		return domain.ErrNotHost
	}
	if r.closed || r.phase != domain.PhaseReveal {
		return domain.ErrInvalidPhase
	}
	r.touchLocked()
	r.leaderboardLocked()
	return nil
}

// Next advances to the following question, or ends the game after the last one.
// Called in REVEAL it shows the leaderboard first. It reports whether the game ended.
func (r *Room) Next(requester string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.host {
		return false, domain.ErrNotHost
	}
	if r.closed {
		return false, domain.ErrInvalidPhase
	}
	if r.phase == domain.PhaseReveal {
		r.leaderboardLocked()
	}
	if r.phase != domain.PhaseLeaderboard {
		return false, domain.ErrInvalidPhase
	}
	r.touchLocked()
	if r.index+1 < r.questionCount {
		r.index++
		r.beginQuestionLocked()
		return false, nil
	}
	r.finishLocked(domain.ReasonFinished)
	return true, nil
}

// End force-terminates a running game.
func (r *Room) End(requester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.host {
		return domain.ErrNotHost
	}
	if r.closed || r.phase == domain.PhaseLobby || r.phase == domain.PhaseEnded {
		return domain.ErrInvalidPhase
	}
	r.finishLocked(domain.ReasonHostEnded)
	return nil
}

// Close ends the room for every member and makes it unusable. It is idempotent.
func (r *Room) Close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.phase != domain.PhaseEnded {
		r.finishLocked(reason)
	}
	r.closed = true
}

func (r *Room) beginQuestionLocked() {
	r.stopTimerLocked()
	r.phase = domain.PhaseQuestion
	r.accepting = true
	r.round++
	r.startedAt = r.now()
	for _, p := range r.players {
		p.ResetAnswer()
	}
	r.pub.Broadcast(r.pin, domain.Event{Type: domain.EventQuestion, Payload: r.questionPayloadLocked()})

	if limit := r.timeLimitLocked(); limit > 0 {
		r.armLocked(limit, domain.PhaseQuestion, r.revealLocked)
	}
}

func (r *Room) revealLocked() {
	r.stopTimerLocked()
	r.accepting = false
	r.phase = domain.PhaseReveal

	q := r.questions[r.index]
	results := make([]domain.RoundResult, 0, len(r.players))
	for _, p := range r.orderedPlayersLocked() {
		sub := domain.Submission{}
		if p.Answer != nil {
			sub = domain.Submission{
				Selections: p.Answer.Selections,
				Elapsed:    p.Answer.SubmittedAt.Sub(r.startedAt),
				Answered:   true,
			}
		}
		out := r.settings.Scorer.Score(q, sub)
		p.Score += out.Delta
		p.LastDelta = out.Delta
		p.LastCorrect = out.Correct
		choices := sub.Selections
		if choices == nil {
			choices = []int{}
		}
		results = append(results, domain.RoundResult{
			Name:    p.Name,
			Choices: choices,
			Correct: out.Correct,
			Delta:   out.Delta,
			Total:   p.Score,
		})
	}
	r.pub.Broadcast(r.pin, domain.Event{Type: domain.EventReveal, Payload: domain.RevealPayload{
		Index:            r.index + 1,
		Total:            r.questionCount,
		CorrectIndices:   q.CorrectIndices,
		PerPlayerResults: results,
	}})
	r.pushRosterLocked()

	if r.settings.LeaderboardDelay > 0 {
		r.armLocked(r.settings.LeaderboardDelay, domain.PhaseReveal, r.leaderboardLocked)
	}
}

func (r *Room) leaderboardLocked() {
	r.stopTimerLocked()
	r.phase = domain.PhaseLeaderboard
	r.pub.Broadcast(r.pin, domain.Event{Type: domain.EventLeaderboard, Payload: domain.LeaderboardPayload{
		Leaderboard: r.standingsLocked(),
	}})
}

func (r *Room) finishLocked(reason string) {
	r.stopTimerLocked()
	r.accepting = false
	r.phase = domain.PhaseEnded
	r.pub.Broadcast(r.pin, domain.Event{Type: domain.EventEnded, Payload: domain.EndedPayload{
		Reason:      reason,
		Leaderboard: r.standingsLocked(),
	}})
}

// armLocked schedules fn to run under the room lock, but only if the room is
// still in the same phase of the same round when the timer fires.
func (r *Room) armLocked(d time.Duration, phase domain.Phase, fn func()) {
	token := r.round
	r.cancelTimer = r.schedule(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.phase != phase || r.round != token {
			return
		}
		fn()
	})
}

func (r *Room) stopTimerLocked() {
	if r.cancelTimer != nil {
		r.cancelTimer()
		r.cancelTimer = nil
	}
}

func (r *Room) progressLocked() {
	answered := 0
	for _, p := range r.players {
		if p.HasAnswered() {
			answered++
		}
	}
	remaining := len(r.players) - answered
	r.pub.Broadcast(r.pin, domain.Event{Type: domain.EventProgress, Payload: domain.ProgressPayload{
		Remaining: remaining,
		Answered:  answered,
	}})
	if r.settings.EagerReveal && len(r.players) > 0 && remaining == 0 {
		r.revealLocked()
	}
}

func (r *Room) pushRosterLocked() {
	r.pub.Unicast(r.host, r.rosterLocked())
}

// membersChangedLocked sends the roster to the host in the lobby and to the
// whole room once a game is running, so players see who is still in.
func (r *Room) membersChangedLocked() {
	if r.phase == domain.PhaseLobby {
		r.pushRosterLocked()
		return
	}
	r.pub.Broadcast(r.pin, r.rosterLocked())
}

func (r *Room) rosterLocked() domain.Event {
	players := make([]domain.Standing, 0, len(r.players))
	for _, p := range r.orderedPlayersLocked() {
		players = append(players, domain.Standing{Name: p.Name, Score: p.Score})
	}
	return domain.Event{Type: domain.EventRoster, Payload: domain.RosterPayload{Players: players}}
}

func (r *Room) questionPayloadLocked() domain.QuestionPayload {
	payload := domain.PublicQuestion(r.questions[r.index], r.index, r.questionCount)
	payload.TimeLimitSec = int(r.timeLimitLocked() / time.Second)
	return payload
}

func (r *Room) timeLimitLocked() time.Duration {
	if limit := r.questions[r.index].TimeLimit(); limit > 0 {
		return limit
	}
	return r.settings.DefaultTimeLimit
}

func (r *Room) orderedPlayersLocked() []*domain.Player {
	out := make([]*domain.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// standingsLocked ranks by score descending, then by join order.
func (r *Room) standingsLocked() []domain.Standing {
	players := r.orderedPlayersLocked()
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })
	out := make([]domain.Standing, 0, len(players))
	for _, p := range players {
		out = append(out, domain.Standing{Name: p.Name, Score: p.Score})
	}
	return out
}

func (r *Room) touchLocked() {
	r.lastActivity = r.now()
}

// RoomInfo is a read-only snapshot of a room.
type RoomInfo struct {
	Pin           string       `json:"pin"`
	Phase         domain.Phase `json:"phase"`
	Players       int          `json:"players"`
	QuestionCount int          `json:"questionCount"`
	Index         int          `json:"index"`
}

func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		Pin:           r.pin,
		Phase:         r.phase,
		Players:       len(r.players),
		QuestionCount: r.questionCount,
		Index:         r.index,
	}
}

func (r *Room) Phase() domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Accepting reports whether answers are currently being collected.
func (r *Room) Accepting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accepting
}

// Standings returns the current ranking.
func (r *Room) Standings() []domain.Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standingsLocked()
}

// Player returns a copy of the player entry for handle.
func (r *Room) Player(handle string) (domain.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[handle]
	if !ok {
		return domain.Player{}, false
	}
	cp := *p
	if p.Answer != nil {
		a := *p.Answer
		a.Selections = append([]int(nil), p.Answer.Selections...)
		cp.Answer = &a
	}
	return cp, true
}

func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return hi
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
