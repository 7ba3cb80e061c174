package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"trivia-room-service/internal/domain"
)

const (
	defaultPinLength = 6
	maxPinAttempts   = 64
)

// RoomStore abstracts where live rooms are kept (in-memory, Redis-backed, etc).
// Insert must fail with ok=false, not an error, when the PIN is already taken.
// Touch keeps a live room's PIN reserved for as long as the room exists.
type RoomStore interface {
	Insert(ctx context.Context, pin string, room *Room) (bool, error)
	Get(pin string) (*Room, bool)
	Touch(ctx context.Context, pin string)
	Delete(ctx context.Context, pin string)
	List() []*Room
}

// PinGenerator returns a candidate PIN.
type PinGenerator func() (string, error)

// Directory owns every live room and allocates unique PINs.
type Directory struct {
	store  RoomStore
	newPin PinGenerator
}

// NewDirectory builds a directory with a numeric PIN generator of pinLength digits.
func NewDirectory(store RoomStore, pinLength int) *Directory {
	if pinLength <= 0 {
		pinLength = defaultPinLength
	}
	return &Directory{store: store, newPin: NumericPins(pinLength)}
}

// NewDirectoryWithGenerator is used by tests to force PIN collisions.
func NewDirectoryWithGenerator(store RoomStore, gen PinGenerator) *Directory {
	return &Directory{store: store, newPin: gen}
}

// NumericPins generates uniformly random decimal PINs using crypto/rand.
func NumericPins(length int) PinGenerator {
	ten := big.NewInt(10)
	return func() (string, error) {
		buf := make([]byte, length)
		for i := range buf {
			n, err := rand.Int(rand.Reader, ten)
			if err != nil {
				return "", fmt.Errorf("generate pin: %w", err)
			}
			buf[i] = byte('0' + n.Int64())
		}
		return string(buf), nil
	}
}

// Create allocates a free PIN, builds the room with it, and registers it.
func (d *Directory) Create(ctx context.Context, build func(pin string) *Room) (*Room, error) {
	for attempt := 0; attempt < maxPinAttempts; attempt++ {
		pin, err := d.newPin()
		if err != nil {
			return nil, err
		}
		if _, taken := d.store.Get(pin); taken {
			continue
		}
		room := build(pin)
		ok, err := d.store.Insert(ctx, pin, room)
		if err != nil {
			return nil, fmt.Errorf("register room: %w", err)
		}
		if ok {
			return room, nil
		}
	}
	return nil, domain.ErrPinSpaceExhausted
}

// Lookup returns the live room for pin.
func (d *Directory) Lookup(pin string) (*Room, error) {
	room, ok := d.store.Get(pin)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// Remove deletes the room for pin. It is idempotent.
func (d *Directory) Remove(ctx context.Context, pin string) {
	d.store.Delete(ctx, pin)
}

// Touch renews the reservation of a live room's PIN.
func (d *Directory) Touch(ctx context.Context, pin string) {
	d.store.Touch(ctx, pin)
}

func (d *Directory) Rooms() []*Room {
	return d.store.List()
}

func (d *Directory) Count() int {
	return len(d.store.List())
}
