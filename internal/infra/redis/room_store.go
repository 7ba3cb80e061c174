package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trivia-room-service/internal/app"
)

// RoomStore is a Redis-aware implementation of app.RoomStore.
// Rooms live in a local map; Redis holds a PIN reservation (SETNX quiz:room:{pin})
// so instances sharing a Redis never hand out the same PIN. Reservation is
// best-effort: if Redis is unreachable the local map alone decides.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		log:    logger,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Insert(ctx context.Context, pin string, room *app.Room) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[pin]; ok {
		return false, nil
	}
	reserved, err := s.client.SetNX(ctx, s.key(pin), "1", s.ttl).Result()
	if err != nil {
		s.log.Warn().Err(err).Str("pin", pin).Msg("pin reservation unavailable, using local check")
	} else if !reserved {
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

// Touch extends the reservation of a local room's PIN. A reservation that already
// expired is taken back unless another instance claimed the PIN in between.
func (s *RoomStore) Touch(ctx context.Context, pin string) {
	s.mu.RLock()
	_, ok := s.rooms[pin]
	s.mu.RUnlock()
	if !ok {
		return
	}
	extended, err := s.client.Expire(ctx, s.key(pin), s.ttl).Result()
	if err != nil {
		s.log.Warn().Err(err).Str("pin", pin).Msg("pin reservation refresh failed")
		return
	}
	if extended {
		return
	}
	reclaimed, err := s.client.SetNX(ctx, s.key(pin), "1", s.ttl).Result()
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("pin", pin).Msg("pin reservation refresh failed")
	case !reclaimed:
		s.log.Error().Str("pin", pin).Msg("pin reservation lost to another instance")
	default:
		s.log.Warn().Str("pin", pin).Msg("pin reservation had expired, reclaimed")
	}
}

func (s *RoomStore) Delete(ctx context.Context, pin string) {
	s.mu.Lock()
	_, ok := s.rooms[pin]
	delete(s.rooms, pin)
	s.mu.Unlock()
	if ok {
		_ = s.client.Del(ctx, s.key(pin)).Err()
	}
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

func (s *RoomStore) key(pin string) string {
	return "quiz:room:" + pin
}
