package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type task struct {
	delay    time.Duration
	fn       func()
	canceled bool
	fired    bool
}

// fakeScheduler records deferred actions and runs them only when told to.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*task
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &task{delay: d, fn: fn}
	s.tasks = append(s.tasks, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.canceled = true
	}
}

// Pending returns tasks that are neither canceled nor fired.
func (s *fakeScheduler) Pending() []*task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*task
	for _, t := range s.tasks {
		if !t.canceled && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// FirePending runs every pending task once.
func (s *fakeScheduler) FirePending() {
	for _, t := range s.Pending() {
		s.fire(t)
	}
}

// FireAll runs every task that has not fired yet, canceled or not.
func (s *fakeScheduler) FireAll() {
	s.mu.Lock()
	var out []*task
	for _, t := range s.tasks {
		if !t.fired {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	for _, t := range out {
		s.fire(t)
	}
}

func (s *fakeScheduler) fire(t *task) {
	s.mu.Lock()
	t.fired = true
	s.mu.Unlock()
	t.fn()
}

// recorder is a Subscriber that keeps every event it is sent.
type recorder struct {
	handle string
	mu     sync.Mutex
	events []domain.Event
}

func newRecorder(handle string) *recorder {
	return &recorder{handle: handle}
}

func (r *recorder) Handle() string { return r.handle }

func (r *recorder) Send(ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) count(typ string) int {
	n := 0
	for _, t := range r.types() {
		if t == typ {
			n++
		}
	}
	return n
}

func (r *recorder) last(t *testing.T, typ string) domain.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i]
		}
	}
	t.Fatalf("%s: no %s event among %d events", r.handle, typ, len(r.events))
	return domain.Event{}
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type harness struct {
	service  *app.RoomService
	gateway  *app.Gateway
	registry *app.Registry
	clock    *fakeClock
	sched    *fakeScheduler
}

func newHarness(t *testing.T, settings app.RoomSettings, questions ...domain.Question) *harness {
	t.Helper()
	return newHarnessWithDirectory(t, app.NewDirectory(memory.NewRoomStore(), 6), settings, questions...)
}

func newHarnessWithDirectory(t *testing.T, dir *app.Directory, settings app.RoomSettings, questions ...domain.Question) *harness {
	t.Helper()
	h := &harness{
		registry: app.NewRegistry(),
		gateway:  app.NewGateway(zerolog.Nop()),
		clock:    newFakeClock(),
		sched:    &fakeScheduler{},
	}
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(domain.QuestionBank{ID: "test", Questions: questions}), time.Minute)
	h.service = app.NewRoomService(dir, h.registry, h.gateway, banks,
		app.ServiceSettings{DefaultBank: "test", Room: settings},
		zerolog.Nop(),
		app.WithClock(h.clock.Now),
		app.WithScheduler(h.sched.Schedule),
	)
	return h
}

func (h *harness) connect(handle string) *recorder {
	rec := newRecorder(handle)
	h.service.Connect(rec)
	return rec
}

// hostRoom connects a host and creates a room.
func (h *harness) hostRoom(t *testing.T) (*recorder, string) {
	t.Helper()
	host := h.connect("host")
	room, err := h.service.CreateRoom(context.Background(), host.Handle())
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return host, room.Pin()
}

func (h *harness) join(t *testing.T, pin, handle, name string) *recorder {
	t.Helper()
	rec := h.connect(handle)
	if err := h.service.Join(context.Background(), handle, pin, name); err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return rec
}

func singleChoice(id string, correct, limitSec int) domain.Question {
	return domain.Question{
		ID:             id,
		Text:           "Question " + id,
		Options:        []string{"A", "B", "C", "D"},
		CorrectIndices: []int{correct},
		NumCorrect:     1,
		TimeLimitSec:   limitSec,
	}
}

func speedSettings() app.RoomSettings {
	return app.RoomSettings{
		MaxQuestions:     30,
		DefaultTimeLimit: 20 * time.Second,
		Scorer:           domain.SpeedScorer{DefaultLimit: 20 * time.Second},
	}
}

// anyList mirrors what a JSON decoder produces for an array of numbers.
func anyList(vals ...int) []any {
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		out = append(out, float64(v))
	}
	return out
}
