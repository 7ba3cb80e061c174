package memory

import (
	"context"
	"sync"

	"trivia-room-service/internal/app"
)

// RoomStore is an in-memory implementation of app.RoomStore.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*app.Room),
	}
}

func (s *RoomStore) Insert(_ context.Context, pin string, room *app.Room) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[pin]; ok {
		return false, nil
	}
	s.rooms[pin] = room
	return true, nil
}

func (s *RoomStore) Get(pin string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[pin]
	return room, ok
}

// Touch is a no-op: an in-process PIN stays reserved until Delete.
func (s *RoomStore) Touch(context.Context, string) {}

func (s *RoomStore) Delete(_ context.Context, pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, pin)
}

func (s *RoomStore) List() []*app.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out
}
