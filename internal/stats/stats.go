// internal/stats/stats.go
//
// Read-only projection over the player registry and chat log.
// A snapshot is two independent reads, not a transaction: the player count
// and message count may describe slightly different instants. Stats are
// diagnostic only.

package stats

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/chat"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/presence"
)

// RecentCount is how many messages a snapshot carries in RecentMessages.
const RecentCount = 5

// PlayerLister is the part of presence.Registry the aggregator reads.
type PlayerLister interface {
	List(ctx context.Context) ([]presence.Player, error)
}

// ChatTailer is the part of chat.Log the aggregator reads.
type ChatTailer interface {
	Tail(ctx context.Context, limit int) ([]chat.Message, int, error)
}

// Stats is a point-in-time summary. Never stored.
type Stats struct {
	ActivePlayers  int            `json:"activePlayers"`
	TotalMessages  int            `json:"totalMessages"`
	RecentMessages []chat.Message `json:"recentMessages"`
	ComputedAt     time.Time      `json:"computedAt"`
}

// Aggregator derives Stats from the two collections.
type Aggregator struct {
	players PlayerLister
	chat    ChatTailer
	now     game.Clock
}

// NewAggregator constructs an Aggregator.
func NewAggregator(players PlayerLister, chat ChatTailer, now game.Clock) *Aggregator {
	if now == nil {
		now = game.SystemClock
	}
	return &Aggregator{players: players, chat: chat, now: now}
}

// Snapshot reads both collections. A failed read zeroes its half of the
// result; the returned error joins every failure.
func (a *Aggregator) Snapshot(ctx context.Context) (Stats, error) {
	s := Stats{RecentMessages: []chat.Message{}, ComputedAt: a.now()}

	players, perr := a.players.List(ctx)
	if perr == nil {
		s.ActivePlayers = len(players)
	}

	msgs, total, cerr := a.chat.Tail(ctx, 0)
	if cerr == nil {
		s.TotalMessages = total
		if n := len(msgs); n > RecentCount {
			msgs = msgs[n-RecentCount:]
		}
		s.RecentMessages = msgs
	}

	return s, errors.Join(perr, cerr)
}
