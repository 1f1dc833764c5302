// internal/game/types.go
//
// Shared error taxonomy and defaults for the Emoji World backend.
// Defines:
//   - Error kinds returned by the presence and chat facades.
//   - Storage keys for the two shared collections.
//   - Default tuning values (grid size, chat cap, player timeout).

package game

import (
	"errors"
	"time"
)

// Error kinds. Facades wrap these with context via fmt.Errorf("%w: ...");
// the HTTP layer maps them with errors.Is:
//   - ErrUnauthorized     → 401
//   - ErrInvalidInput     → 400
//   - ErrStoreUnavailable → 500 on writes, degraded result on reads
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Keys in the shared key-value namespace. Each collection lives under one key.
const (
	PlayersKey = "players"
	ChatKey    = "chat"
)

const (
	DefaultGridSize         = 20
	DefaultMaxChatHistory   = 100
	DefaultMaxMessageLength = 200
	DefaultPlayerTimeout    = 30 * time.Second
	DefaultCleanupInterval  = 10 * time.Second
)

// Clock returns the current time. Facades take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }
