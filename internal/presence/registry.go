// internal/presence/registry.go
//
// Player registry: last-known position and avatar per identity.
// Responsibilities:
//   - List every stored player (staleness is the sweep's concern, not the read path's).
//   - Upsert a player's position; overwrite, never merge.
//   - Remove a player on logout.
//   - Sweep players whose last update is older than a timeout.
//
// Storage:
//   The whole collection lives under game.PlayersKey as a JSON object keyed by
//   player ID. Every mutation is fetch → modify → write of that one value.
//
// Concurrency:
//   There is no lock around the read-modify-write. Two mutations that both read
//   before either writes lose one of the updates, including changes to entries
//   the second writer never touched. The store offers no compare-and-swap, and
//   callers must treat positions as best effort.

package presence

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/store"
)

// Player is the last-known state of one connected player.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Emoji      string `json:"emoji"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	LastUpdate int64  `json:"lastUpdate"` // Unix milliseconds
}

// Position is the (x, y) pair echoed back to clients.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Position returns the player's coordinates.
func (p Player) Position() Position { return Position{X: p.X, Y: p.Y} }

// DefaultAvatars is the symbol set players may pick from.
var DefaultAvatars = []string{
	"🙂", "😀", "😎", "🤠", "🤖", "👾", "👻", "🐱", "🐶", "🦊",
	"🐸", "🐼", "🐧", "🦄", "🐙", "🌵", "🍄", "🎃", "🚀", "⭐",
}

// Registry is a stateless facade over the players collection.
type Registry struct {
	store    store.Store
	now      game.Clock
	gridSize int
	avatars  map[string]struct{}
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(c game.Clock) Option { return func(r *Registry) { r.now = c } }

// WithGridSize sets the inclusive upper coordinate bound.
func WithGridSize(n int) Option { return func(r *Registry) { r.gridSize = n } }

// WithAvatars replaces the allowed avatar set.
func WithAvatars(avatars []string) Option {
	return func(r *Registry) { r.avatars = toSet(avatars) }
}

// NewRegistry constructs a Registry over st.
func NewRegistry(st store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:    st,
		now:      game.SystemClock,
		gridSize: game.DefaultGridSize,
		avatars:  toSet(DefaultAvatars),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// GridSize reports the inclusive coordinate bound.
func (r *Registry) GridSize() int { return r.gridSize }

// List returns every stored player sorted by ID.
// On store failure it returns an empty, non-nil slice and an error wrapping
// game.ErrStoreUnavailable so read endpoints can degrade.
func (r *Registry) List(ctx context.Context) ([]Player, error) {
	players, err := r.load(ctx)
	if err != nil {
		return []Player{}, err
	}
	return sorted(players), nil
}

// Upsert records a new position for id and returns the stored player with
// the collection size that was written.
//
// x and y are rounded to the nearest integer and clamped to [0, GridSize].
func (r *Registry) Upsert(ctx context.Context, id, name string, x, y float64, avatar string) (Player, int, error) {
	if strings.TrimSpace(id) == "" {
		return Player{}, 0, game.ErrUnauthorized
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return Player{}, 0, fmt.Errorf("%w: x and y must be finite numbers", game.ErrInvalidInput)
	}
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return Player{}, 0, fmt.Errorf("%w: emoji is required", game.ErrInvalidInput)
	}
	if _, ok := r.avatars[avatar]; !ok {
		return Player{}, 0, fmt.Errorf("%w: unsupported emoji", game.ErrInvalidInput)
	}

	players, err := r.load(ctx)
	if err != nil {
		return Player{}, 0, err
	}

	now := r.now().UnixMilli()
	if prev, ok := players[id]; ok && prev.LastUpdate > now {
		now = prev.LastUpdate
	}
	if name == "" {
		name = id
	}
	p := Player{
		ID:         id,
		Name:       name,
		Emoji:      avatar,
		X:          r.clamp(x),
		Y:          r.clamp(y),
		LastUpdate: now,
	}
	players[id] = p

	if err := r.save(ctx, players); err != nil {
		return Player{}, 0, err
	}
	return p, len(players), nil
}

// Remove deletes id from the collection. It reports whether the player was
// present and the number of players left. Removing an absent player is not
// an error and performs no write.
func (r *Registry) Remove(ctx context.Context, id string) (bool, int, error) {
	players, err := r.load(ctx)
	if err != nil {
		return false, 0, err
	}
	if _, ok := players[id]; !ok {
		return false, len(players), nil
	}
	delete(players, id)
	if err := r.save(ctx, players); err != nil {
		return false, 0, err
	}
	return true, len(players), nil
}

// Sweep removes every player with now - lastUpdate > timeout. A player whose
// age equals the timeout exactly is kept. The collection is written back only
// when at least one player was removed.
func (r *Registry) Sweep(ctx context.Context, now time.Time, timeout time.Duration) (removed, remaining int, err error) {
	players, err := r.load(ctx)
	if err != nil {
		return 0, 0, err
	}
	cutoff := now.UnixMilli()
	limit := timeout.Milliseconds()
	for id, p := range players {
		if cutoff-p.LastUpdate > limit {
			delete(players, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, len(players), nil
	}
	if err := r.save(ctx, players); err != nil {
		return 0, 0, err
	}
	return removed, len(players), nil
}

// ----------------------------------------------------------------------------

func (r *Registry) load(ctx context.Context) (map[string]Player, error) {
	players := map[string]Player{}
	if _, err := store.GetJSON(ctx, r.store, game.PlayersKey, &players); err != nil {
		return nil, fmt.Errorf("%w: read players: %v", game.ErrStoreUnavailable, err)
	}
	if players == nil {
		players = map[string]Player{}
	}
	return players, nil
}

func (r *Registry) save(ctx context.Context, players map[string]Player) error {
	if err := store.SetJSON(ctx, r.store, game.PlayersKey, players); err != nil {
		return fmt.Errorf("%w: write players: %v", game.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Registry) clamp(v float64) int {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > float64(r.gridSize) {
		return r.gridSize
	}
	return int(v)
}

func sorted(players map[string]Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
