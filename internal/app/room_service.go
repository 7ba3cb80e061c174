package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"trivia-room-service/internal/domain"
)

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, id string) (domain.QuestionBank, error)
}

// ServiceSettings configures how rooms are created.
type ServiceSettings struct {
	DefaultBank string
	Room        RoomSettings
}

// RoomService contains the room use cases. Every command is addressed by PIN
// and authorized by the room itself.
type RoomService struct {
	dir      *Directory
	registry *Registry
	gateway  *Gateway
	banks    BankRepository
	settings ServiceSettings
	roomOpts []RoomOption
	log      zerolog.Logger
}

func NewRoomService(dir *Directory, registry *Registry, gateway *Gateway, banks BankRepository, settings ServiceSettings, logger zerolog.Logger, opts ...RoomOption) *RoomService {
	return &RoomService{
		dir:      dir,
		registry: registry,
		gateway:  gateway,
		banks:    banks,
		settings: settings,
		roomOpts: opts,
		log:      logger,
	}
}

// Connect makes a new connection known to the registry and gateway.
func (s *RoomService) Connect(sub Subscriber) {
	s.registry.Connect(sub.Handle())
	s.gateway.Register(sub)
}

// Disconnect leaves whatever room the connection was in. A departing host ends its room.
func (s *RoomService) Disconnect(ctx context.Context, handle string) {
	s.leaveCurrent(ctx, handle)
	s.registry.Disconnect(handle)
	s.gateway.Unregister(handle)
}

// CreateRoom opens a new room hosted by handle, seeded with the default bank.
func (s *RoomService) CreateRoom(ctx context.Context, handle string) (*Room, error) {
	s.leaveCurrent(ctx, handle)

	var questions []domain.Question
	if s.banks != nil && s.settings.DefaultBank != "" {
		bank, err := s.banks.GetBank(ctx, s.settings.DefaultBank)
		if err != nil {
			s.log.Warn().Err(err).Str("bank", s.settings.DefaultBank).Msg("default bank unavailable, room starts empty")
		} else {
			questions = domain.NormalizeQuestions(bank.Questions)
		}
	}

	room, err := s.dir.Create(ctx, func(pin string) *Room {
		return NewRoom(pin, handle, questions, s.settings.Room, s.gateway, s.roomOpts...)
	})
	if err != nil {
		return nil, err
	}
	s.registry.Bind(handle, room.Pin(), domain.RoleHost)
	room.Open()
	s.log.Info().Str("pin", room.Pin()).Str("handle", handle).Int("questions", len(questions)).Msg("room created")
	return room, nil
}

// UpdateQuestions replaces a room's questions with host-supplied data or a stored bank.
func (s *RoomService) UpdateQuestions(ctx context.Context, handle, pin string, raw any, bankID string, desired int) (int, error) {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return 0, err
	}
	if room.Host() != handle {
		return 0, domain.ErrNotHost
	}
	var questions []domain.Question
	if bankID != "" {
		if s.banks == nil {
			return 0, domain.ErrBankNotFound
		}
		bank, err := s.banks.GetBank(ctx, bankID)
		if err != nil {
			return 0, err
		}
		questions = domain.NormalizeQuestions(bank.Questions)
	} else {
		questions = domain.SanitizeQuestions(raw)
	}
	return room.ReplaceQuestions(handle, questions, desired)
}

func (s *RoomService) Start(_ context.Context, handle, pin string, count int, shuffle bool) error {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return err
	}
	if err := room.Start(handle, count, shuffle); err != nil {
		return err
	}
	s.log.Info().Str("pin", pin).Msg("game started")
	return nil
}

func (s *RoomService) Reveal(_ context.Context, handle, pin string) error {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return err
	}
	return room.Reveal(handle)
}

func (s *RoomService) ShowLeaderboard(_ context.Context, handle, pin string) error {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return err
	}
	return room.ShowLeaderboard(handle)
}

// Next advances the game and removes the room once the last question is done.
func (s *RoomService) Next(ctx context.Context, handle, pin string) error {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return err
	}
	ended, err := room.Next(handle)
	if err != nil {
		return err
	}
	if ended {
		s.closeRoom(ctx, room, domain.ReasonFinished)
	}
	return nil
}

func (s *RoomService) End(ctx context.Context, handle, pin string) error {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return err
	}
	if err := room.End(handle); err != nil {
		return err
	}
	s.closeRoom(ctx, room, domain.ReasonHostEnded)
	return nil
}

// Join adds handle to the room as a player, leaving any previous room first.
func (s *RoomService) Join(ctx context.Context, handle, pin, name string) error {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return err
	}
	if m, ok := s.registry.Lookup(handle); ok {
		if m.Pin == pin && m.Role == domain.RoleHost {
			return domain.ErrHostCannotJoin
		}
		if m.Pin != pin {
			s.leaveCurrent(ctx, handle)
		}
	}
	if err := room.Join(handle, name); err != nil {
		return err
	}
	s.registry.Bind(handle, pin, domain.RolePlayer)
	s.log.Debug().Str("pin", pin).Str("handle", handle).Msg("player joined")
	return nil
}

func (s *RoomService) Answer(_ context.Context, handle, pin string, raw any) error {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return err
	}
	return room.Answer(handle, raw)
}

// Lookup exposes the directory for read-only callers.
func (s *RoomService) Lookup(pin string) (*Room, error) {
	return s.dir.Lookup(pin)
}

// RoomInfo returns a snapshot of the room behind pin.
func (s *RoomService) RoomInfo(pin string) (RoomInfo, error) {
	room, err := s.dir.Lookup(pin)
	if err != nil {
		return RoomInfo{}, err
	}
	return room.Info(), nil
}

// Stats is a process-wide summary.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func (s *RoomService) Stats() Stats {
	return Stats{Rooms: s.dir.Count(), Connections: s.registry.Count()}
}

// ExpireIdle closes rooms with no activity for longer than maxIdle and returns
// how many it closed. Surviving rooms get their PIN reservation renewed. A
// non-positive maxIdle only renews.
func (s *RoomService) ExpireIdle(ctx context.Context, now time.Time, maxIdle time.Duration) int {
	closed := 0
	for _, room := range s.dir.Rooms() {
		if maxIdle > 0 && now.Sub(room.LastActivity()) > maxIdle {
			s.closeRoom(ctx, room, domain.ReasonExpired)
			closed++
			continue
		}
		s.dir.Touch(ctx, room.Pin())
	}
	return closed
}

// RunJanitor periodically expires idle rooms and renews live ones until ctx is done.
func (s *RoomService) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.ExpireIdle(ctx, now, maxIdle); n > 0 {
				s.log.Info().Int("rooms", n).Msg("expired idle rooms")
			}
		}
	}
}

func (s *RoomService) leaveCurrent(ctx context.Context, handle string) {
	m, ok := s.registry.Lookup(handle)
	if !ok {
		return
	}
	room, err := s.dir.Lookup(m.Pin)
	if err != nil {
		s.registry.Release(handle, m.Pin)
		return
	}
	if m.Role == domain.RoleHost {
		s.closeRoom(ctx, room, domain.ReasonHostDisconnected)
		return
	}
	room.Leave(handle)
	s.registry.Release(handle, m.Pin)
}

// closeRoom broadcasts the end of the room, then removes it everywhere.
func (s *RoomService) closeRoom(ctx context.Context, room *Room, reason string) {
	room.Close(reason)
	s.dir.Remove(ctx, room.Pin())
	s.gateway.DropRoom(room.Pin())
	s.registry.ReleaseRoom(room.Pin())
	s.log.Info().Str("pin", room.Pin()).Str("reason", reason).Msg("room closed")
}

// IsSilent reports whether err should be dropped without telling the client.
func IsSilent(err error) bool {
	return errors.Is(err, domain.ErrNotHost) ||
		errors.Is(err, domain.ErrInvalidPhase) ||
		errors.Is(err, domain.ErrAlreadyAnswered) ||
		errors.Is(err, domain.ErrPlayerNotFound) ||
		errors.Is(err, domain.ErrHostCannotJoin)
}
