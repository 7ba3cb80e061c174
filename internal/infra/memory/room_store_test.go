package memory

import (
	"context"
	"testing"

	"trivia-room-service/internal/app"
)

func TestRoomStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewRoomStore()
	room := app.NewRoom("123456", "host", nil, app.RoomSettings{}, nil)

	ok, err := store.Insert(ctx, "123456", room)
	if err != nil || !ok {
		t.Fatalf("expected insert, got ok=%v err=%v", ok, err)
	}
	if ok, _ := store.Insert(ctx, "123456", room); ok {
		t.Fatalf("expected duplicate pin to be refused")
	}
	if got, ok := store.Get("123456"); !ok || got != room {
		t.Fatalf("expected room present")
	}
	if len(store.List()) != 1 {
		t.Fatalf("expected one room listed")
	}

	store.Delete(ctx, "123456")
	store.Delete(ctx, "123456")
	if _, ok := store.Get("123456"); ok {
		t.Fatalf("expected room removed")
	}
}
