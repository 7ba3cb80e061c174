package app_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

func TestGatewayScopesBroadcastsToRoom(t *testing.T) {
	g := app.NewGateway(zerolog.Nop())
	a, b, c := newRecorder("a"), newRecorder("b"), newRecorder("c")
	for _, r := range []*recorder{a, b, c} {
		g.Register(r)
	}
	g.Subscribe("111111", "a")
	g.Subscribe("111111", "b")
	g.Subscribe("222222", "c")
	g.Subscribe("111111", "unknown")

	g.Broadcast("111111", domain.Event{Type: "ping"})
	if a.count("ping") != 1 || b.count("ping") != 1 || c.count("ping") != 0 {
		t.Fatalf("expected broadcast scoped to room members")
	}

	g.Unicast("c", domain.Event{Type: "direct"})
	if c.count("direct") != 1 || a.count("direct") != 0 {
		t.Fatalf("expected unicast to reach only c")
	}

	g.Unsubscribe("111111", "a")
	g.Broadcast("111111", domain.Event{Type: "again"})
	if a.count("again") != 0 || b.count("again") != 1 {
		t.Fatalf("expected unsubscribed member to be skipped")
	}

	g.Unregister("b")
	if g.Subscribers("111111") != 0 {
		t.Fatalf("expected unregister to clear room membership")
	}
	g.DropRoom("222222")
	g.DropRoom("222222")
	if g.Subscribers("222222") != 0 {
		t.Fatalf("expected room dropped")
	}
}

type failingSubscriber struct{ handle string }

func (f failingSubscriber) Handle() string          { return f.handle }
func (f failingSubscriber) Send(domain.Event) error { return errors.New("buffer full") }

func TestGatewayToleratesFailingSubscribers(t *testing.T) {
	g := app.NewGateway(zerolog.Nop())
	ok := newRecorder("ok")
	g.Register(failingSubscriber{handle: "bad"})
	g.Register(ok)
	g.Subscribe("111111", "bad")
	g.Subscribe("111111", "ok")

	g.Broadcast("111111", domain.Event{Type: "x"})
	if ok.count("x") != 1 {
		t.Fatalf("expected healthy subscriber to still receive the event")
	}
}

func TestRegistryMembership(t *testing.T) {
	r := app.NewRegistry()
	r.Bind("ghost", "111111", domain.RolePlayer)
	if _, ok := r.Lookup("ghost"); ok {
		t.Fatalf("expected unknown handles to be ignored")
	}

	r.Connect("h")
	r.Connect("p")
	r.Bind("h", "111111", domain.RoleHost)
	r.Bind("p", "111111", domain.RolePlayer)
	if m, ok := r.Lookup("h"); !ok || m.Role != domain.RoleHost {
		t.Fatalf("expected host membership, got %+v", m)
	}

	r.Release("p", "999999")
	if _, ok := r.Lookup("p"); !ok {
		t.Fatalf("expected release for another pin to be ignored")
	}
	r.ReleaseRoom("111111")
	if _, ok := r.Lookup("p"); ok {
		t.Fatalf("expected room release to clear members")
	}
	if r.Count() != 2 {
		t.Fatalf("expected both handles still connected, got %d", r.Count())
	}
	if _, had := r.Disconnect("h"); had {
		t.Fatalf("expected no membership left for h")
	}
	if r.Count() != 1 {
		t.Fatalf("expected one connection left, got %d", r.Count())
	}
}

func TestNumericPins(t *testing.T) {
	gen := app.NumericPins(6)
	for i := 0; i < 100; i++ {
		pin, err := gen()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(pin) != 6 || strings.Trim(pin, "0123456789") != "" {
			t.Fatalf("expected 6 digits, got %q", pin)
		}
	}
}
